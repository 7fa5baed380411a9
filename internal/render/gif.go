package render

import (
	"bufio"
	"fmt"
	"image/gif"
	"os"
)

// gifDelay returns the per-frame delay in hundredths of a second.
func gifDelay(fps int) int {
	return max(1, 100/fps)
}

func encodeGIF(path string, anim *Animation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	delays := make([]int, len(anim.Frames))
	for i := range delays {
		delays[i] = gifDelay(anim.FPS)
	}

	bw := bufio.NewWriter(f)
	if err := gif.EncodeAll(bw, &gif.GIF{
		Image:     anim.Frames,
		Delay:     delays,
		LoopCount: 0,
	}); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}
