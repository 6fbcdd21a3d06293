package llm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeReader[T any] struct {
	ch     chan T
	err    error
	closed bool
}

func newFakeReader[T any](err error, events ...T) *fakeReader[T] {
	ch := make(chan T, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeReader[T]{ch: ch, err: err}
}

func (r *fakeReader[T]) Events() <-chan T { return r.ch }
func (r *fakeReader[T]) Close() error     { r.closed = true; return nil }
func (r *fakeReader[T]) Err() error       { return r.err }

// fakeBedrock records the last request of each kind and replays canned responses.
type fakeBedrock struct {
	converseIn       *bedrockruntime.ConverseInput
	converseStreamIn *bedrockruntime.ConverseStreamInput
	invokeIn         *bedrockruntime.InvokeModelInput
	invokeStreamIn   *bedrockruntime.InvokeModelWithResponseStreamInput

	converseOut  *bedrockruntime.ConverseOutput
	converseEvts *fakeReader[types.ConverseStreamOutput]
	invokeOut    *bedrockruntime.InvokeModelOutput
	invokeEvts   *fakeReader[types.ResponseStream]
	err          error
}

func (f *fakeBedrock) Converse(_ context.Context, in *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
	f.converseIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.converseOut, nil
}

func (f *fakeBedrock) ConverseStream(_ context.Context, in *bedrockruntime.ConverseStreamInput) (EventReader[types.ConverseStreamOutput], error) {
	f.converseStreamIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.converseEvts, nil
}

func (f *fakeBedrock) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
	f.invokeIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.invokeOut, nil
}

func (f *fakeBedrock) InvokeModelWithResponseStream(_ context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput) (EventReader[types.ResponseStream], error) {
	f.invokeStreamIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.invokeEvts, nil
}

var _ BedrockAPI = (*fakeBedrock)(nil)
