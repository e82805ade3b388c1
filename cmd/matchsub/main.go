package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/sim800.go/pkg/comm/mqtt"
	"github.com/robotalks/sim800.go/pkg/monitor"
)

var (
	mqttURL    = "mqtt://localhost:1883/robo/"
	outputJSON bool
)

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print events in JSON.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	_, err = q.Subscribe("+/"+monitor.MatchTopic, func(topic string, payload []byte) {
		ev, err := monitor.DecodeEvent(payload)
		if err != nil {
			log.Printf("%s: bad event: %v", topic, err)
			return
		}
		if outputJSON {
			out, err := monitor.EventJSON(ev)
			if err != nil {
				log.Printf("%s: %v", topic, err)
				return
			}
			log.Println(out)
			return
		}
		stream := strings.TrimSuffix(topic, "/"+monitor.MatchTopic)
		log.Printf("%s: [%s] offset=%d time=%s", stream, ev.Marker, ev.Offset, ev.Time.Format("15:04:05.000"))
	})
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
