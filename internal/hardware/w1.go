package hardware

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var w1TempRe = regexp.MustCompile(`t=(-?[0-9]+)`)

// W1Sensor reads a single DS18B20 thermometer from the 1-wire sysfs tree under Root.
type W1Sensor struct {
	Root string
}

// NewW1Sensor returns a sensor rooted at root ("/" on a real board).
func NewW1Sensor(root string) *W1Sensor {
	return &W1Sensor{Root: root}
}

func (s *W1Sensor) ReadFahrenheit() (float64, error) {
	c, err := s.ReadCelsius()
	if err != nil {
		return 0, err
	}
	return CelsiusToFahrenheit(c), nil
}

// ReadCelsius expects exactly one 28-* device whose w1_slave reports a good CRC ("YES")
// on its first line and the reading in thousandths of a degree ("t=24495") on its second.
func (s *W1Sensor) ReadCelsius() (float64, error) {
	devices, err := filepath.Glob(filepath.Join(s.Root, "sys", "bus", "w1", "devices", "28-*"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrHWTempRead, err)
	}
	if len(devices) != 1 {
		return 0, fmt.Errorf("%w: want exactly one 28-* device, found %d: %s",
			ErrHWTempRead, len(devices), strings.Join(devices, " :: "))
	}

	f, err := os.Open(filepath.Join(devices[0], "w1_slave"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrHWTempRead, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() || !strings.Contains(sc.Text(), "YES") {
		return 0, fmt.Errorf("%w: w1_slave missing YES marker", ErrHWTempRead)
	}
	if !sc.Scan() {
		return 0, fmt.Errorf("%w: w1_slave has no reading line", ErrHWTempRead)
	}
	m := w1TempRe.FindStringSubmatch(sc.Text())
	if m == nil {
		return 0, fmt.Errorf("%w: w1_slave reading malformed: %q", ErrHWTempRead, sc.Text())
	}
	milli, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrHWTempRead, err)
	}
	return float64(milli) / 1000, nil
}
