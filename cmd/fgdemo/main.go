// Command fgdemo runs a bloom-style frame graph on the noop GPU backend and
// reports pool statistics.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend/native"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

func main() {
	var (
		width   = flag.Uint("width", 1280, "target width")
		height  = flag.Uint("height", 720, "target height")
		frames  = flag.Int("frames", 4, "number of frames to run")
		samples = flag.Uint("samples", 4, "MSAA sample count of the scene")
		maxAge  = flag.Int("max-age", framegraph.DefaultMaxAge, "frames an unused resource is kept")
		resize  = flag.Bool("resize", true, "halve the target size halfway through")
		verbose = flag.Bool("v", false, "log scheduling decisions")
	)
	flag.Parse()

	if *verbose {
		framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		log.Fatalf("create instance: %v", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		log.Fatal("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer openDev.Device.Destroy()

	dev, err := native.New(openDev.Device, openDev.Queue)
	if err != nil {
		log.Fatalf("native device: %v", err)
	}

	exec := framegraph.New(dev, framegraph.WithMaxAge(*maxAge), framegraph.WithLabelPrefix("fgdemo"))
	defer exec.Destroy()

	w, h := uint32(*width), uint32(*height)
	for frame := range *frames {
		if *resize && frame == *frames/2 {
			w, h = max(w/2, 1), max(h/2, 1)
		}

		present, err := dev.CreateTexture(framegraph.TextureDesc{
			Label:  "swapchain",
			Format: gputypes.TextureFormatBGRA8Unorm,
			Width:  w,
			Height: h,
		})
		if err != nil {
			log.Fatalf("present texture: %v", err)
		}

		g := buildFrame(exec, w, h, uint32(*samples))
		if frame == 0 {
			log.Printf("%s", g)
		}
		err = exec.Execute(g, present)
		dev.DestroyTexture(present)
		if err != nil {
			log.Fatalf("frame %d: %v", frame, err)
		}
		log.Printf("frame %d (%dx%d): %s", frame, w, h, exec.Stats())
	}
}

// buildFrame declares scene, bright-pass, two blur passes and a composite
// that presents.
func buildFrame(exec *framegraph.Executor, w, h, samples uint32) *framegraph.Graph {
	b := exec.Begin()

	scene := b.CreateSurface(framegraph.SurfaceDesc{
		Label:       "scene",
		Format:      gputypes.TextureFormatBGRA8Unorm,
		Width:       w,
		Height:      h,
		SampleCount: samples,
		Color:       framegraph.ColorClear{Value: gputypes.Color{R: 0.05, G: 0.05, B: 0.1, A: 1}},
	})
	depth := b.CreateSurface(framegraph.SurfaceDesc{
		Label:       "depth",
		Format:      gputypes.TextureFormatDepth24PlusStencil8,
		Width:       w,
		Height:      h,
		SampleCount: samples,
		Depth:       framegraph.DepthClear{Value: 1},
	})

	half := func(label string) framegraph.SurfaceID {
		return b.CreateSurface(framegraph.SurfaceDesc{
			Label:  label,
			Format: gputypes.TextureFormatBGRA8Unorm,
			Width:  max(w/2, 1),
			Height: max(h/2, 1),
		})
	}
	bright, blurX, blurY := half("bright"), half("blur_x"), half("blur_y")

	output := b.CreateSurface(framegraph.SurfaceDesc{
		Label:       "output",
		Format:      gputypes.TextureFormatBGRA8Unorm,
		Width:       w,
		Height:      h,
		SampleCount: samples,
	})

	b.PushPass("scene", func(ps *framegraph.PassSetup) {
		ps.WriteColor(scene)
		ps.WriteDepthStencil(depth)
		ps.Execute(logPass)
	})
	sceneCopy := b.RequestCopy(scene)

	b.PushPass("bright", func(ps *framegraph.PassSetup) {
		ps.Read(sceneCopy)
		ps.WriteColor(bright)
		ps.Execute(logPass)
	})
	brightCopy := b.RequestCopy(bright)

	b.PushPass("blur_x", func(ps *framegraph.PassSetup) {
		ps.Read(brightCopy)
		ps.WriteColor(blurX)
		ps.Execute(logPass)
	})
	blurXCopy := b.RequestCopy(blurX)

	b.PushPass("blur_y", func(ps *framegraph.PassSetup) {
		ps.Read(blurXCopy)
		ps.WriteColor(blurY)
		ps.Execute(logPass)
	})
	bloom := b.RequestCopy(blurY)

	b.PushPass("composite", func(ps *framegraph.PassSetup) {
		ps.Read(sceneCopy)
		ps.Read(bloom)
		ps.WriteColor(output)
		ps.Present()
		ps.Execute(logPass)
	})

	return b.End()
}

func logPass(s *framegraph.Scope) {
	vp := s.Viewport()
	framegraph.Logger().Debug("fgdemo: record pass", "pass", s.Name(), "width", vp.Width, "height", vp.Height)
}
