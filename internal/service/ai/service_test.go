package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (f *fakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func TestChatReturnsReply(t *testing.T) {
	svc := &Service{chatModel: &fakeModel{reply: "Visit the old town."}}

	got, err := svc.Chat(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Equal(t, "Visit the old town.", got)
}

func TestChatSubstitutesFallbackForEmptyReply(t *testing.T) {
	svc := &Service{chatModel: &fakeModel{reply: "  \n"}}

	got, err := svc.Chat(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Equal(t, FallbackReply, got)
}

func TestChatPropagatesUpstreamError(t *testing.T) {
	svc := &Service{chatModel: &fakeModel{err: errors.New("rate limited")}}

	_, err := svc.Chat(context.Background(), "system", "user")
	require.Error(t, err)
}

func TestCompleteJSONParsesFencedReply(t *testing.T) {
	svc := &Service{chatModel: &fakeModel{reply: "```json\n{\"summary\": \"ok\", \"extra\": 42}\n```"}}

	doc, err := svc.CompleteJSON(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Equal(t, "ok", doc["summary"])
	require.EqualValues(t, 42, doc["extra"])
}

func TestCompleteJSONRejectsGarbage(t *testing.T) {
	svc := &Service{chatModel: &fakeModel{reply: "sorry, I can't do that"}}

	_, err := svc.CompleteJSON(context.Background(), "system", "user")
	require.Error(t, err)
}

func TestParseJSONObject(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantKey string
		wantErr bool
	}{
		{name: "bare object", raw: `{"a": 1}`, wantKey: "a"},
		{name: "fenced", raw: "```json\n{\"a\": 1}\n```", wantKey: "a"},
		{name: "fence without language", raw: "```\n{\"a\": 1}\n```", wantKey: "a"},
		{name: "surrounding prose", raw: "Here you go: {\"a\": 1} enjoy!", wantKey: "a"},
		{name: "no object", raw: "no json here", wantErr: true},
		{name: "broken object", raw: `{"a": `, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseJSONObject(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Contains(t, doc, tc.wantKey)
		})
	}
}
