package main

import (
	"context"
	"errors"
	"time"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"gitea.kood.tech/petrkubec/campus-compass/backend/store"
	"github.com/graph-gophers/dataloader/v7"
)

var errCatalogNotFound = errors.New("catalog entry not found")

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

const loaderWait = 2 * time.Millisecond

// DataLoaders batch catalog lookups made while serving one request.
// Keys are names normalised with store.NameKey.
type DataLoaders struct {
	RoommateLoader *dataloader.Loader[string, compass.RoommateProfile]
	ListingLoader  *dataloader.Loader[string, compass.HousingListing]
}

// NewDataLoaders creates fresh loaders over the catalog store
func NewDataLoaders(s store.CatalogStore) *DataLoaders {
	return &DataLoaders{
		RoommateLoader: dataloader.NewBatchedLoader(roommateBatchFn(s), dataloader.WithWait[string, compass.RoommateProfile](loaderWait)),
		ListingLoader:  dataloader.NewBatchedLoader(listingBatchFn(s), dataloader.WithWait[string, compass.HousingListing](loaderWait)),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

func roommateBatchFn(s store.CatalogStore) dataloader.BatchFunc[string, compass.RoommateProfile] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[compass.RoommateProfile] {
		found, err := s.RoommatesByName(ctx, keys)
		return batchResults(keys, found, err)
	}
}

func listingBatchFn(s store.CatalogStore) dataloader.BatchFunc[string, compass.HousingListing] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[compass.HousingListing] {
		found, err := s.ListingsByName(ctx, keys)
		return batchResults(keys, found, err)
	}
}

// batchResults lines results up with keys; the loader requires one result per key, in order.
func batchResults[V any](keys []string, found map[string]V, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], len(keys))
	for i, key := range keys {
		switch v, ok := found[store.NameKey(key)]; {
		case err != nil:
			results[i] = &dataloader.Result[V]{Error: err}
		case !ok:
			results[i] = &dataloader.Result[V]{Error: errCatalogNotFound}
		default:
			results[i] = &dataloader.Result[V]{Data: v}
		}
	}
	return results
}
