package input

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingFormat(t *testing.T) {
	r := NewRing(8)

	assert.Zero(t, r.Rate())
	assert.Equal(t, 8, r.Capacity())

	r.SetFormat(44100, 2)
	assert.Equal(t, 44100.0, r.Rate())
	assert.Equal(t, 2, r.Channels())
}

func TestRingWriteWraps(t *testing.T) {
	r := NewRing(4)

	r.Write([]float64{1, -1, 2, -2, 3, -3}, 2)
	assert.Equal(t, 3, r.Index())

	r.Write([]float64{4, -4, 5, -5, 6, -6}, 2)
	assert.Equal(t, 2, r.Index())
	assert.Equal(t, uint64(6), r.Written())

	left := make([]float64, 4)
	r.Snapshot(0, left)
	assert.Equal(t, []float64{3, 4, 5, 6}, left)

	right := make([]float64, 2)
	r.Snapshot(1, right)
	assert.Equal(t, []float64{-5, -6}, right)
}

func TestRingSnapshotCapped(t *testing.T) {
	r := NewRing(2)
	r.Write([]float64{7, 8, 9}, 1)

	dst := []float64{0, 0, 42}
	r.Snapshot(0, dst)

	assert.Equal(t, []float64{8, 9, 42}, dst)
}

func TestRingMono(t *testing.T) {
	r := NewRing(4)
	r.Write([]float64{1, 2}, 1)

	left := make([]float64, 2)
	right := make([]float64, 2)
	r.Snapshot(0, left)
	r.Snapshot(1, right)

	assert.Equal(t, left, right)
	assert.Equal(t, []float64{1, 2}, right)
}

func TestRingSilence(t *testing.T) {
	r := NewRing(4)
	r.Write([]float64{1, 1, 1, 1}, 1)
	r.WriteSilence(2)

	dst := make([]float64, 4)
	r.Snapshot(0, dst)
	assert.Equal(t, []float64{1, 1, 0, 0}, dst)
}

func TestRingFail(t *testing.T) {
	r := NewRing(4)
	r.SetRunning(true)

	first := errors.New("device unplugged")
	r.Fail(first)
	r.Fail(errors.New("second"))

	assert.True(t, r.Terminated())
	assert.False(t, r.Running())
	assert.Equal(t, first, r.Err())
}

func TestRingConcurrentAccess(t *testing.T) {
	r := NewRing(64)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		frame := make([]float64, 32)
		for i := 0; i < 1000; i++ {
			for j := range frame {
				frame[j] = float64(i)
			}
			r.Write(frame, 2)
		}
	}()

	dst := make([]float64, 64)
	for i := 0; i < 1000; i++ {
		r.Snapshot(i%2, dst)
		for _, v := range dst {
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1000.0)
		}
	}

	wg.Wait()
	assert.Equal(t, uint64(16000), r.Written())
}

func TestSessionConfigValidate(t *testing.T) {
	good := SessionConfig{FrameSize: 2, SampleSize: 1024, SampleRate: 44100}
	assert.NoError(t, good.Validate())

	for _, bad := range []SessionConfig{
		{FrameSize: 0, SampleSize: 1, SampleRate: 1},
		{FrameSize: 3, SampleSize: 1, SampleRate: 1},
		{FrameSize: 1, SampleSize: 0, SampleRate: 1},
		{FrameSize: 1, SampleSize: 1, SampleRate: 0},
	} {
		assert.Error(t, bad.Validate())
	}
}

type lookupBackend struct{ fakeBackend }

func (lookupBackend) LookupDevice(name string) (Device, error) {
	return namedDevice(name), nil
}

type namedDevice string

func (d namedDevice) String() string { return string(d) }

type fakeBackend struct{}

func (fakeBackend) Init() error  { return nil }
func (fakeBackend) Close() error { return nil }
func (fakeBackend) Devices() ([]Device, error) {
	return []Device{namedDevice("one"), namedDevice("two")}, nil
}
func (fakeBackend) DefaultDevice() (Device, error)       { return namedDevice("one"), nil }
func (fakeBackend) Start(SessionConfig) (Session, error) { return nil, nil }

func TestGetDevice(t *testing.T) {
	dev, err := GetDevice(fakeBackend{}, "")
	require.NoError(t, err)
	assert.Equal(t, "one", dev.String())

	dev, err = GetDevice(fakeBackend{}, "two")
	require.NoError(t, err)
	assert.Equal(t, "two", dev.String())

	_, err = GetDevice(fakeBackend{}, "three")
	assert.Error(t, err)

	dev, err = GetDevice(lookupBackend{}, "/tmp/any.wav")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/any.wav", dev.String())
}

func TestRegistry(t *testing.T) {
	saved := Backends
	defer func() { Backends = saved }()

	Backends = nil
	RegisterBackend("fake", fakeBackend{})
	RegisterBackend("lookup", lookupBackend{})

	assert.True(t, HasBackend("fake"))
	assert.False(t, HasBackend("missing"))
	assert.Equal(t, []string{"fake", "lookup"}, GetAllBackendNames())

	_, ok := FindBackend("lookup").(DeviceLookup)
	assert.True(t, ok)

	_, err := InitBackend("missing")
	assert.Error(t, err)

	b, err := InitBackend("fake")
	require.NoError(t, err)
	assert.NotNil(t, b)
}
