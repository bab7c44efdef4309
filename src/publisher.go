package main

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// GeneratorCommand is one outbound write: a published path or a discovery
// payload, the gensetctl analog of the teacher's MQTTMessage.
type GeneratorCommand struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// CommandPublisher wraps a channel of outgoing commands with typed helpers,
// adapted from the teacher's MQTTSender in mqtt_sender.go.
type CommandPublisher struct {
	ch chan<- GeneratorCommand
}

func NewCommandPublisher(ch chan<- GeneratorCommand) *CommandPublisher {
	return &CommandPublisher{ch: ch}
}

func (p *CommandPublisher) Send(cmd GeneratorCommand) {
	p.ch <- cmd
}

// PublishFloat writes a numeric value to path with QoS 0, non-retained,
// mirroring the teacher's PublishDebugSensor formatting.
func (p *CommandPublisher) PublishFloat(path BusPath, value float64) {
	p.Send(GeneratorCommand{
		Topic:   path.Topic(),
		Payload: []byte(strconv.FormatFloat(value, 'f', -1, 64)),
		QoS:     0,
	})
}

// PublishInt writes an integer-valued enum path (State, Error, alarm codes).
func (p *CommandPublisher) PublishInt(path BusPath, value int) {
	p.Send(GeneratorCommand{
		Topic:   path.Topic(),
		Payload: []byte(strconv.Itoa(value)),
		QoS:     1,
		Retain:  true,
	})
}

// PublishString writes a short-string path such as RunningByCondition.
func (p *CommandPublisher) PublishString(path BusPath, value string) {
	p.Send(GeneratorCommand{
		Topic:   path.Topic(),
		Payload: []byte(value),
		QoS:     1,
		Retain:  true,
	})
}

// haDevice/haSensorConfig mirror the teacher's discovery payload shapes in
// CreateBatteryEntity/CreateDebugSensor, repointed at generator state paths
// per SPEC_FULL.md's observability expansion.
type haDevice struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name"`
}

type haSensorConfig struct {
	Name             string   `json:"name"`
	StateTopic       string   `json:"state_topic"`
	UnitOfMeasure    string   `json:"unit_of_measurement,omitempty"`
	UniqueId         string   `json:"unique_id"`
	StateClass       string   `json:"state_class,omitempty"`
	DisplayPrecision int      `json:"suggested_display_precision,omitempty"`
	Device           haDevice `json:"device"`
}

// CreateDiscoverySensor publishes an MQTT-discovery config payload for one
// generator observability path, making published state legible to any
// discovery-aware consumer without rendering anything itself.
func (p *CommandPublisher) CreateDiscoverySensor(genName, sensorID, name, unit string, precision int) error {
	config := haSensorConfig{
		Name:             name,
		StateTopic:       "victron/" + genName + "/" + sensorID,
		UnitOfMeasure:    unit,
		UniqueId:         "gensetctl_" + genName + "_" + sensorID,
		StateClass:       "measurement",
		DisplayPrecision: precision,
		Device: haDevice{
			Identifiers: []string{"gensetctl_" + genName},
			Name:        "gensetctl " + genName,
		},
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return err
	}

	p.Send(GeneratorCommand{
		Topic:   "homeassistant/sensor/gensetctl_" + genName + "_" + sensorID + "/config",
		Payload: payload,
		QoS:     2,
		Retain:  true,
	})
	return nil
}

// commandPublisherWorker handles outgoing commands with queue-until-
// connected semantics, adapted from the teacher's mqttSenderWorker.
func commandPublisherWorker(
	ctx context.Context,
	outgoing <-chan GeneratorCommand,
	clientChan <-chan mqtt.Client,
) {
	log.Println("command publisher started")

	var client mqtt.Client
	var queue []GeneratorCommand

	for {
		select {
		case newClient := <-clientChan:
			client = newClient
			if client != nil && client.IsConnected() {
				for _, cmd := range queue {
					token := client.Publish(cmd.Topic, cmd.QoS, cmd.Retain, cmd.Payload)
					token.Wait()
					if token.Error() != nil {
						log.Printf("command publisher: failed to publish queued %s: %v\n", cmd.Topic, token.Error())
					}
				}
				queue = nil
			}

		case cmd := <-outgoing:
			if client != nil && client.IsConnected() {
				token := client.Publish(cmd.Topic, cmd.QoS, cmd.Retain, cmd.Payload)
				token.Wait()
				if token.Error() != nil {
					log.Printf("command publisher: failed to publish %s: %v\n", cmd.Topic, token.Error())
				}
			} else {
				queue = append(queue, cmd)
			}

		case <-ctx.Done():
			log.Println("command publisher stopped")
			return
		}
	}
}
