package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrPopplerNotFound indicates the poppler-utils binaries are not installed.
var ErrPopplerNotFound = errors.New("poppler-utils not found in PATH (need pdfinfo, pdftoppm, pdftotext)")

// popplerRasterizer implements ingestion.Rasterizer by shelling out to the
// poppler-utils tools. Each call is an independent process, so the type is
// safe for concurrent use.
type popplerRasterizer struct {
	dpi int
}

func newPopplerRasterizer(dpi int) (*popplerRasterizer, error) {
	for _, tool := range []string{"pdfinfo", "pdftoppm", "pdftotext"} {
		if _, err := exec.LookPath(tool); err != nil {
			return nil, fmt.Errorf("%w: missing %s", ErrPopplerNotFound, tool)
		}
	}
	if dpi <= 0 {
		dpi = 96
	}
	return &popplerRasterizer{dpi: dpi}, nil
}

func (r *popplerRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo %s: %w", path, err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("parsing page count of %s: %w", path, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo %s: no Pages line in output", path)
}

func (r *popplerRasterizer) RenderPage(ctx context.Context, path string, pageNum int) ([]byte, error) {
	tmp, err := os.MkdirTemp("", "sketchdex-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	prefix := filepath.Join(tmp, "page")
	page := strconv.Itoa(pageNum)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png", "-r", strconv.Itoa(r.dpi), "-f", page, "-l", page, path, prefix)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm %s page %d: %w", path, pageNum, err)
	}

	// pdftoppm zero-pads the page suffix depending on total page count, so
	// glob instead of predicting the exact name.
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm %s page %d: no output produced", path, pageNum)
	}
	return os.ReadFile(matches[0])
}

func (r *popplerRasterizer) ExtractText(ctx context.Context, path string, pageNum int) (string, error) {
	page := strconv.Itoa(pageNum)
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdftotext", "-f", page, "-l", page, path, "-")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext %s page %d: %w", path, pageNum, err)
	}
	return strings.TrimSpace(out.String()), nil
}
