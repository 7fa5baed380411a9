package render

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// ffmpegArgs returns the arguments that read raw RGBA frames on stdin.
func ffmpegArgs(out string, width, height, fps int) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		out,
	}
}

// encodeVideo pipes every frame to an ffmpeg process writing out.
func encodeVideo(ctx context.Context, ffmpeg, out string, anim *Animation) error {
	bin, err := exec.LookPath(ffmpeg)
	if err != nil {
		return fmt.Errorf("video encoder not available: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, ffmpegArgs(out, anim.Width, anim.Height, anim.FPS)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}

	writeErr := writeRawFrames(stdin, anim)
	closeErr := stdin.Close()
	waitErr := cmd.Wait()

	if waitErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", waitErr, msg)
		}
		return fmt.Errorf("ffmpeg: %w", waitErr)
	}
	if writeErr != nil {
		return fmt.Errorf("write frames: %w", writeErr)
	}
	return closeErr
}

// writeRawFrames writes each paletted frame as packed RGBA rows.
func writeRawFrames(w io.Writer, anim *Animation) error {
	lut := make([][4]byte, len(anim.Palette))
	for i, c := range anim.Palette {
		r, g, b, a := c.RGBA()
		lut[i] = [4]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)}
	}

	bw := bufio.NewWriterSize(w, 1<<20)
	row := make([]byte, anim.Width*4)
	for _, img := range anim.Frames {
		for y := 0; y < anim.Height; y++ {
			pix := img.Pix[y*img.Stride : y*img.Stride+anim.Width]
			for x, idx := range pix {
				copy(row[x*4:], lut[idx][:])
			}
			if _, err := bw.Write(row); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
