package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestT(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
		lang string
	}{
		{
			name: "english",
			id:   "destroy",
			want: "Burn 5 B",
			lang: "en-EN,ru;q=0.5",
		},
		{
			name: "russian",
			id:   "destroy",
			want: "Сжечь 5 B",
			lang: "ru-RU,ru;q=0.5",
		},
		{
			name: "unknown language falls back to english",
			id:   "destroy",
			want: "Burn 5 B",
			lang: "unknownLang",
		},
		{
			name: "unknown message",
			id:   "unknownName",
			want: "",
			lang: "ru",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := T(tt.lang, C{
				MessageID:    tt.id,
				TemplateData: Template{"Amount": "5 B"},
			})
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLang(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{accept: "ru-RU,ru;q=0.9,en;q=0.5", want: "ru"},
		{accept: "en-US", want: "en"},
		{accept: "de", want: "en"},
		{accept: "", want: "en"},
		{accept: "not a language;;", want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			require.Equal(t, tt.want, Lang(tt.accept).String())
		})
	}
}
