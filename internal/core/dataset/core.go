package dataset

// Storer data persistence
type Storer interface {
	CuratedDataset() CuratedDatasetStorer
}

// Core business domain
type Core struct {
	store Storer
}

// NewCore create business domain
func NewCore(store Storer) Core {
	return Core{store: store}
}
