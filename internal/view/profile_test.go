package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/api"
)

func TestProfileMount(t *testing.T) {
	fake := newFakeAPI()
	rec := &Recorder{}
	p := NewProfile(fake, Options{Navigator: rec})

	require.NoError(t, p.Mount(context.Background()))

	st := p.Snapshot()
	require.NotNil(t, st.Profile)
	assert.Equal(t, "ann", st.Profile.Username)
	assert.Equal(t, "ann@example.com", st.Profile.Email)
	assert.Empty(t, st.Error)
}

func TestProfileUnauthorized(t *testing.T) {
	fake := newFakeAPI()
	fake.profileErr = errUnauthorized
	rec := &Recorder{}
	p := NewProfile(fake, Options{Navigator: rec})

	assert.NotPanics(t, func() { _ = p.Mount(context.Background()) })

	st := p.Snapshot()
	assert.Nil(t, st.Profile)
	assert.Equal(t, "Unauthorized", st.Error)
	nav, ok := rec.Take()
	require.True(t, ok)
	assert.Equal(t, RouteLogin, nav.To)
}

func TestProfileOtherErrorStaysOnPage(t *testing.T) {
	fake := newFakeAPI()
	fake.profileErr = &api.RequestError{StatusCode: 500, Message: "Something went wrong"}
	rec := &Recorder{}
	p := NewProfile(fake, Options{Navigator: rec})

	require.Error(t, p.Mount(context.Background()))
	assert.Equal(t, "Something went wrong", p.Snapshot().Error)
	_, ok := rec.Take()
	assert.False(t, ok)
}

func TestProfileGoBack(t *testing.T) {
	rec := &Recorder{}
	p := NewProfile(newFakeAPI(), Options{Navigator: rec})

	p.GoBack()

	nav, ok := rec.Take()
	require.True(t, ok)
	assert.True(t, nav.Back)
	_, ok = rec.Take()
	assert.False(t, ok, "Take clears the pending move")
}
