package monitor

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/sim800.go/pkg/comm"
	"github.com/robotalks/sim800.go/pkg/comm/mqtt"
)

const appID = "matchmon"

// Markers is a flag.Value accepting repeated name=text.
// Text accepts Go string escapes, e.g. "ready=Call Ready\r\n".
type Markers []Marker

// String implements flag.Value.
func (m *Markers) String() string {
	items := make([]string, len(*m))
	for n, marker := range *m {
		items[n] = marker.String()
	}
	return strings.Join(items, ",")
}

// Set implements flag.Value.
func (m *Markers) Set(val string) error {
	marker, err := ParseMarker(val)
	if err != nil {
		return err
	}
	*m = append(*m, marker)
	return nil
}

// ParseMarker parses name=text.
func ParseMarker(val string) (Marker, error) {
	name, text, ok := strings.Cut(val, "=")
	if !ok || name == "" || text == "" {
		return Marker{}, fmt.Errorf("invalid marker %q, expect name=text", val)
	}
	if unquoted, err := strconv.Unquote(`"` + text + `"`); err == nil {
		text = unquoted
	}
	return Marker{Name: name, Pattern: []byte(text)}, nil
}

// Config provides options to create a Watcher.
type Config struct {
	Source  string
	Stream  string
	MQTTURL string
	QoS     int
	Markers Markers
}

var defaultConfig = Config{
	Source: "/dev/ttyUSB0",
}

func init() {
	if val := os.Getenv("ROBO_MONITOR_SOURCE"); val != "" {
		defaultConfig.Source = val
	}
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Source, "source", defaultConfig.Source, "Source URL of the stream.")
	flag.StringVar(&defaultConfig.Stream, "stream", defaultConfig.Stream, "Stream name, machine ID by default.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL to publish events.")
	flag.IntVar(&defaultConfig.QoS, "qos", defaultConfig.QoS, "MQTT QoS of events.")
	flag.Var(&defaultConfig.Markers, "marker", "Marker as name=text, repeatable.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Markers = append(Markers(nil), defaultConfig.Markers...)
	return &conf
}

// StreamName returns Stream, or a name derived from machine ID.
func (c *Config) StreamName() string {
	if c.Stream != "" {
		return c.Stream
	}
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine ID: %v", err)
		if id, err = os.Hostname(); err != nil {
			return appID
		}
		return id
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// NewQueue creates the MQTT queue for publishing events, nil if MQTTURL is empty.
func (c *Config) NewQueue() (*mqtt.Queue, error) {
	if c.MQTTURL == "" {
		return nil, nil
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID(appID + ":" + c.StreamName())
	}
	q := mqtt.NewQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		return nil, err
	}
	return q, nil
}

// NewWatcher opens the source and creates a Watcher.
func (c *Config) NewWatcher() (*Watcher, error) {
	if len(c.Markers) == 0 {
		return nil, fmt.Errorf("at least one marker is required")
	}
	w := &Watcher{}
	reporters := MultiReporter{LogReporter{}}
	q, err := c.NewQueue()
	if err != nil {
		return nil, err
	}
	if q != nil {
		reporters = append(reporters, &MQTTReporter{Publisher: q, QoS: byte(c.QoS)})
		w.closers = append(w.closers, q)
	}
	if w.Monitor, err = New(c.StreamName(), reporters, c.Markers...); err != nil {
		w.Close()
		return nil, err
	}
	if w.Source, err = comm.OpenSource(c.Source); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// MustNewWatcher creates a Watcher or fails.
func (c *Config) MustNewWatcher() *Watcher {
	w, err := c.NewWatcher()
	if err != nil {
		log.Fatalln(err)
	}
	return w
}
