package hardware

import "sync"

// FakeRelay is an in-memory relay used in tests and in testing run mode.
type FakeRelay struct {
	mu sync.Mutex

	on            bool
	indeterminate bool
	initialized   int
	writes        []bool

	// InitErr and SetErr, if set, are returned by Initialize and Set.
	InitErr error
	SetErr  error
}

// NewFakeRelay returns an open relay whose position can be read back.
func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

// NewIndeterminateFakeRelay returns a relay whose position can never be read back.
func NewIndeterminateFakeRelay() *FakeRelay {
	return &FakeRelay{indeterminate: true}
}

func (f *FakeRelay) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InitErr != nil {
		return f.InitErr
	}
	f.initialized++
	return nil
}

func (f *FakeRelay) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil {
		return f.SetErr
	}
	f.on = on
	f.writes = append(f.writes, on)
	return nil
}

func (f *FakeRelay) Get() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indeterminate {
		return false, false
	}
	return f.on, true
}

func (f *FakeRelay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = false
	return nil
}

// Force moves the relay without recording a write, as if someone flipped it by hand.
func (f *FakeRelay) Force(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = on
}

// On reports the physical position regardless of determinacy.
func (f *FakeRelay) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Writes returns every value passed to Set, oldest first.
func (f *FakeRelay) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes...)
}

// Initialized reports how many times Initialize succeeded.
func (f *FakeRelay) Initialized() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

// FakeSensor returns a settable temperature.
type FakeSensor struct {
	mu    sync.Mutex
	tempF float64
	err   error
}

// NewFakeSensor returns a sensor reading tempF.
func NewFakeSensor(tempF float64) *FakeSensor {
	return &FakeSensor{tempF: tempF}
}

func (f *FakeSensor) ReadFahrenheit() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.tempF, nil
}

// Set changes the reading and clears any injected error.
func (f *FakeSensor) Set(tempF float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tempF = tempF
	f.err = nil
}

// Fail makes subsequent reads return err.
func (f *FakeSensor) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}
