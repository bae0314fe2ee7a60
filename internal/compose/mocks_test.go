package compose

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/maauso/mediacompose-api/internal/media"
)

// mockFetcher implements fetch.Fetcher for testing.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	args := m.Called(ctx, rawURL, dest)
	return args.Error(0)
}

// mockProcessor implements media.Processor for testing.
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Probe(ctx context.Context, path string) (media.Info, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(media.Info), args.Error(1)
}

func (m *mockProcessor) MergeClips(ctx context.Context, spec media.MergeSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

func (m *mockProcessor) RenderSlideshow(ctx context.Context, spec media.SlideshowSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

func (m *mockProcessor) RenderVideoLoop(ctx context.Context, spec media.LoopSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

// mockConcatenator implements audio.Concatenator for testing.
type mockConcatenator struct {
	mock.Mock
}

func (m *mockConcatenator) Concat(ctx context.Context, inputs []string, output string) (float64, error) {
	args := m.Called(ctx, inputs, output)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockConcatenator) Duration(ctx context.Context, path string) (float64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(float64), args.Error(1)
}
