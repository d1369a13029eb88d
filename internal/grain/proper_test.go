package grain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProper(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in, want string
	}{
		{"button", "button"},
		{"my/button", "myButton"},
		{"my/label", "myLabel"},
		{"a/b/c", "aBC"},
		{"ui/date-picker", "uiDate-picker"},
		{"ui/Already", "uiAlready"},
		{"lead//double", "leadDouble"},
		{"trailing/", "trailing"},
		{"/rooted", "Rooted"},
		{"x/éclair", "xÉclair"},
		{"", ""},
	} {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Proper(tc.in))
		})
	}
}
