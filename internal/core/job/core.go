package job

// Storer data persistence
type Storer interface {
	Job() JobStorer
	Frame() FrameStorer
	Annotation() AnnotationStorer
}

// Core business domain
type Core struct {
	store     Storer
	batchSize int
}

type Option func(*Core)

// WithBatchSize 入库时每批写入的行数
func WithBatchSize(n int) Option {
	return func(c *Core) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// NewCore create business domain
func NewCore(store Storer, opts ...Option) Core {
	c := Core{store: store, batchSize: 500}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// limitPager 内部查询使用的分页器
type limitPager struct {
	limit int
}

func (p limitPager) Offset() int { return 0 }
func (p limitPager) Limit() int  { return p.limit }
