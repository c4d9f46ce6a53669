package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolderEmptyUntilSet(t *testing.T) {
	holder := &Holder{}
	assert.Empty(t, holder.CookieHeader())

	holder.Set(&Session{Cookies: map[string]string{"session": "abc", "csrf": "xyz"}})
	assert.Equal(t, "csrf=xyz; session=abc", holder.CookieHeader())
}
