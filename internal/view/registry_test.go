package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tracker/internal/api"
)

func TestRegistry(t *testing.T) {
	built := 0
	r := NewRegistry(2, time.Hour, func(id string, _ api.Credentials) *Page {
		built++
		rec := &Recorder{}
		return &Page{
			Dashboard: NewDashboard(newFakeAPI(), Options{Navigator: rec}),
			Profile:   NewProfile(newFakeAPI(), Options{Navigator: rec}),
			Recorder:  rec,
		}
	}, nil)

	a := r.Page("a", nil)
	assert.Same(t, a, r.Page("a", nil))
	assert.Equal(t, 1, built)

	r.Page("b", nil)
	r.Page("c", nil)
	assert.Equal(t, 2, r.Size())
	assert.NotSame(t, a, r.Page("a", nil), "a was evicted as least recently used")

	r.Drop("a")
	assert.Equal(t, 1, r.Size())
	assert.Zero(t, r.CleanExpired())
}
