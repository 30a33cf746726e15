package chart

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Open hands a rendered figure file to the desktop's default viewer.
var Open = func(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("chart: failed to open viewer: %w", err)
	}

	// The viewer outlives us; reap it in the background.
	go cmd.Wait()

	return nil
}

// Show renders f in the given format to a temporary file and opens it.
func Show(f *Figure, format Format) error {
	tmp, err := os.CreateTemp("", "imgbench-*."+string(format))
	if err != nil {
		return fmt.Errorf("chart: failed to create figure file: %w", err)
	}

	switch format {
	case HTML:
		err = f.RenderHTML(tmp)
	case PNG:
		err = f.RenderPNG(tmp, DefaultWidth, DefaultHeight)
	default:
		err = fmt.Errorf("chart: unknown format %q", format)
	}

	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return Open(tmp.Name())
}
