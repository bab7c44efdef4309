package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// RawMessage is one inbound (topic, payload) pair from the bus, the
// gensetctl analog of the teacher's SensorMessage. IsNull marks a
// null/empty payload: the remote retained an explicit null rather than a
// value, which the snapshot worker folds in as "known but unavailable"
// instead of a scalar.
type RawMessage struct {
	Path    BusPath
	Payload string
	At      time.Time
	IsNull  bool
}

// busMonitorWorker manages the MQTT connection used as the Bus Monitor's
// transport and forwards every message on a declared path to rawChan,
// adapted from the teacher's mqttWorker in mqtt_worker.go.
func busMonitorWorker(
	ctx context.Context,
	broker string,
	paths []BusPath,
	username, password, clientID string,
	rawChan chan<- RawMessage,
	clientChan chan<- mqtt.Client,
) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:1883", broker))
	opts.SetClientID(clientID)
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("bus monitor: connection lost: %v\n", err)
	})

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("bus monitor: connected to %s\n", broker)

		select {
		case clientChan <- client:
		case <-ctx.Done():
			return
		}

		for _, p := range paths {
			path := p
			topic := path.Topic()
			token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
				payload := string(msg.Payload())
				isNull := payload == "" || payload == "null"
				select {
				case rawChan <- RawMessage{Path: path, Payload: payload, At: time.Now(), IsNull: isNull}:
				case <-ctx.Done():
				}
			})
			if token.Wait() && token.Error() != nil {
				log.Printf("bus monitor: failed to subscribe to %s: %v\n", topic, token.Error())
			}
		}
	})

	client := mqtt.NewClient(opts)
	log.Printf("bus monitor: connecting to %s...\n", broker)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("bus monitor: failed to connect: %v\n", token.Error())
	}

	<-ctx.Done()
	if client.IsConnected() {
		client.Disconnect(250)
	}
}

// parseScalar tries to read an MQTT payload as a float, the same permissive
// numeric-first strategy HA sensors use; when it fails, the snapshot worker
// stores the raw payload as a string.
func parseScalar(payload string) (f float64, isFloat bool) {
	v, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
