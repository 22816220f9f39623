package slug_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/emailcraft/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		opts []slug.Option
		want string
	}{
		{"Summer Sale Newsletter", nil, "summer-sale-newsletter"},
		{"  Welcome -- Series!  ", nil, "welcome-series"},
		{"Café Crème Brûlée", nil, "cafe-creme-brulee"},
		{"jane.doe+vip@example.com", nil, "jane-doe-vip-example-com"},
		{"Black Friday 2025 (Copy)", nil, "black-friday-2025-copy"},
		{"Product Launch Announcement", []slug.Option{slug.MaxLength(14)}, "product-launch"},
		{"Product Launch", []slug.Option{slug.MaxLength(8)}, "product"},
		{"***", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.in, tt.opts...))
		})
	}
}

func TestMake_Suffix(t *testing.T) {
	t.Parallel()

	got := slug.Make("Monthly Digest", slug.WithSuffix(6))
	assert.Regexp(t, regexp.MustCompile(`^monthly-digest-[a-z0-9]{6}$`), got)

	got = slug.Make("Monthly Digest", slug.WithSuffix(6), slug.MaxLength(14))
	assert.Regexp(t, regexp.MustCompile(`^monthly-[a-z0-9]{6}$`), got)

	got = slug.Make("!!!", slug.WithSuffix(4))
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{4}$`), got)

	assert.NotEqual(t, slug.Make("a", slug.WithSuffix(8)), slug.Make("a", slug.WithSuffix(8)))
}
