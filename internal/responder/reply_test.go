package responder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "text field wins",
			body: `{"text":"from text","response":"from response"}`,
			want: "from text",
		},
		{
			name: "response field as fallback",
			body: `{"response":"from response"}`,
			want: "from response",
		},
		{
			name: "json with no usable field",
			body: `{"status":"ok"}`,
			want: PlaceholderReply,
		},
		{
			name: "plain text used verbatim",
			body: "  a plain answer\n",
			want: "a plain answer",
		},
		{
			name: "empty body",
			body: "",
			want: PlaceholderReply,
		},
		{
			name: "whitespace only",
			body: "   \n\t",
			want: PlaceholderReply,
		},
		{
			name: "empty json object",
			body: `{}`,
			want: PlaceholderReply,
		},
		{
			name: "json string is not a reply",
			body: `"hello"`,
			want: PlaceholderReply,
		},
		{
			name: "json array is not a reply",
			body: `[1,2]`,
			want: PlaceholderReply,
		},
		{
			name: "json number is not a reply",
			body: `123`,
			want: PlaceholderReply,
		},
		{
			name: "non-string text field ignored",
			body: `{"text":7,"response":"fallback"}`,
			want: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DecodeReply([]byte(tt.body)))
		})
	}
}
