package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/setanarut/monologo"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func blackImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	return img
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_WritesHeader(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	out := filepath.Join(dir, "PapyrixLogo.h")
	writePNG(t, in, blackImage(256, 128))

	code, stdout, stderr := run(t, in, out)
	if code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"Created: " + out, "Size: 128x128", "Bytes: 2048"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout %q missing %q", stdout, want)
		}
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc := string(got)
	if !strings.HasPrefix(doc, "#pragma once\n#include <cstdint>\n\nstatic const uint8_t PapyrixLogo[] = {\n") {
		t.Fatalf("unexpected header: %q", doc[:80])
	}
	// 32 white rows, 64 black rows, 32 white rows.
	if n := strings.Count(doc, "0xFF"); n != 1024 {
		t.Fatalf("%d 0xFF values, want 1024", n)
	}
	if n := strings.Count(doc, "0x00"); n != 1024 {
		t.Fatalf("%d 0x00 values, want 1024", n)
	}
}

func TestRun_InvertAndPreview(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	out := filepath.Join(dir, "Logo.h")
	preview := filepath.Join(dir, "preview.png")
	writePNG(t, in, blackImage(128, 256))

	code, _, stderr := run(t, "--invert", "--rotate", "90", "--preview", preview, "--preview-scale", "2", "--verbose", in, out)
	if code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "normalized: rotate=90") {
		t.Fatalf("verbose log missing from stderr: %q", stderr)
	}

	f, err := os.Open(preview)
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("preview is %v", b)
	}
	// Rotated to 256x128, so the black band is in the middle rows and
	// inverted it renders white.
	if r, _, _, _ := img.At(128, 128).RGBA(); r != 0xffff {
		t.Fatalf("inverted center should be white")
	}
	if r, _, _, _ := img.At(128, 2).RGBA(); r != 0 {
		t.Fatalf("inverted padding should be black")
	}
}

func TestRun_AutoThreshold(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	out := filepath.Join(dir, "Logo.h")
	writePNG(t, in, blackImage(64, 64))

	code, _, stderr := run(t, "--auto-threshold", "otsu", in, out)
	if code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "falling back to 128") {
		t.Fatalf("expected a fallback warning for a single-level image, stderr: %q", stderr)
	}
}

func TestRun_InvalidRotation(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	out := filepath.Join(dir, "Logo.h")
	writePNG(t, in, blackImage(10, 10))

	code, _, _ := run(t, "--rotate", "45", in, out)
	if code != ExitInvalidInvocation {
		t.Fatalf("exit %d, want %d", code, ExitInvalidInvocation)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output must not be created on a usage error, stat: %v", err)
	}
}

func TestRun_UsageErrorReportedOnce(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	writePNG(t, in, blackImage(10, 10))

	code, _, stderr := run(t, "--rotate", "45", in, filepath.Join(dir, "Logo.h"))
	if code != ExitInvalidInvocation {
		t.Fatalf("exit %d, want %d", code, ExitInvalidInvocation)
	}
	if n := strings.Count(stderr, "Error:"); n != 1 {
		t.Fatalf("error printed %d times, stderr: %q", n, stderr)
	}
	if strings.Contains(stderr, "Incorrect Usage") {
		t.Fatalf("usage error printed twice, stderr: %q", stderr)
	}
}

func TestRun_HeaderFailureRemovesPreview(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	preview := filepath.Join(dir, "preview.png")
	writePNG(t, in, blackImage(10, 10))

	code, _, stderr := run(t, "--preview", preview, in, filepath.Join(dir, "no", "such", "Logo.h"))
	if code != ExitFailure {
		t.Fatalf("exit %d, want %d (stderr: %s)", code, ExitFailure, stderr)
	}
	if _, err := os.Stat(preview); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("preview must not survive a failed header write, stat: %v", err)
	}
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "logo.png")
	writePNG(t, good, blackImage(10, 10))
	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("\x89PNG but not really"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cases := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"missing input", []string{filepath.Join(dir, "missing.png"), filepath.Join(dir, "a.h")}, ExitFailure, "input not found"},
		{"corrupt input", []string{corrupt, filepath.Join(dir, "b.h")}, ExitFailure, "cannot decode image"},
		{"unwritable output", []string{good, filepath.Join(dir, "no", "such", "dir", "c.h")}, ExitFailure, "cannot write output"},
		{"no arguments", nil, ExitInvalidInvocation, "missing <input_image>"},
		{"too many arguments", []string{good, "x.h", "y.h"}, ExitInvalidInvocation, "too many arguments"},
		{"bad gray method", []string{"--gray", "sepia", good, filepath.Join(dir, "d.h")}, ExitInvalidInvocation, "sepia"},
		{"bad threshold value", []string{"--threshold", "dark", good, filepath.Join(dir, "e.h")}, ExitInvalidInvocation, ""},
		{"unwritable preview", []string{"--preview", filepath.Join(dir, "nope", "p.png"), good, filepath.Join(dir, "f.h")}, ExitFailure, "preview"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := run(t, tc.args...)
			if code != tc.code {
				t.Fatalf("exit %d, want %d (stderr: %s)", code, tc.code, stderr)
			}
			if !strings.Contains(stderr, tc.msg) {
				t.Fatalf("stderr %q missing %q", stderr, tc.msg)
			}
		})
	}
	for _, name := range []string{"a.h", "b.h", "d.h", "e.h", "f.h"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s must not be written after a failure", name)
		}
	}
}

func TestRun_EnvironmentOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	out := filepath.Join(dir, "Logo.h")
	writePNG(t, in, blackImage(32, 32))

	// Every pixel is 0, so threshold 0 turns everything on.
	t.Setenv("MONOLOGO_THRESHOLD", "0")
	code, _, stderr := run(t, in, out)
	if code != ExitSuccess {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n := strings.Count(string(got), "0xFF"); n != monologo.PackedLen {
		t.Fatalf("%d 0xFF values, want all %d", n, monologo.PackedLen)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{monologo.ErrInputNotFound, ExitFailure},
		{monologo.ErrImageDecode, ExitFailure},
		{monologo.ErrWrite, ExitFailure},
		{monologo.ErrInvalidArgument, ExitInvalidInvocation},
		{&InvocationError{Message: "x"}, ExitInvalidInvocation},
		{errors.New("flag provided but not defined: -x"), ExitInvalidInvocation},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
