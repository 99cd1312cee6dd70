package player

// Silent is a transport that accepts every command and never emits events.
// Headless commands use it to drive a session without starting mpv.
type Silent struct {
	position float64
}

func (s *Silent) Load(_, _ string, start float64) error {
	s.position = start
	return nil
}

func (s *Silent) Play() error  { return nil }
func (s *Silent) Pause() error { return nil }
func (s *Silent) Stop() error  { return nil }

func (s *Silent) Seek(seconds float64) error {
	s.position = seconds
	return nil
}

func (s *Silent) SetRate(float64) error     { return nil }
func (s *Silent) TimePos() (float64, error) { return s.position, nil }
func (s *Silent) Subscribe(Observer)        {}
func (s *Silent) Close() error              { return nil }
