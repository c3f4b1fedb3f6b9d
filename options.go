package framegraph

// DefaultMaxAge is the number of frames an unused pooled resource survives
// before it is destroyed.
const DefaultMaxAge = 1

// Option configures an Executor during creation.
//
// Example:
//
//	exec := framegraph.New(device,
//		framegraph.WithMaxAge(3),
//		framegraph.WithLabelPrefix("scene"),
//	)
type Option func(*options)

type options struct {
	maxAge      int
	labelPrefix string
}

func defaultOptions() options {
	return options{
		maxAge:      DefaultMaxAge,
		labelPrefix: "framegraph",
	}
}

// WithMaxAge sets how many frames a free pooled resource is kept before it
// is destroyed. Values below 1 are treated as 1, which keeps resources used
// by the previous frame only.
func WithMaxAge(frames int) Option {
	return func(o *options) {
		if frames < 1 {
			frames = 1
		}
		o.maxAge = frames
	}
}

// WithLabelPrefix sets the prefix of the debug labels given to device
// resources.
func WithLabelPrefix(prefix string) Option {
	return func(o *options) {
		o.labelPrefix = prefix
	}
}
