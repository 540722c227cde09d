package mqttclient

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cgateweb/bridge/internal/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second
	maxQoS                   = 2
	tlsMinVersion            = tls.VersionTLS12
)

// buildClientOptions creates paho options from the bridge's MQTT config.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	broker := cfg.Broker
	if strings.HasPrefix(broker, "ssl://") || strings.HasPrefix(broker, "tcp://") {
		opts.AddBroker(broker)
	} else {
		opts.AddBroker(fmt.Sprintf("%s://%s", scheme, broker))
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "cgateweb"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if strings.HasPrefix(broker, "ssl://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	configureLWT(opts, clientID)

	return opts
}

// configureLWT sets up the hello/cgateweb last-will, per §6: "offline" on
// unexpected disconnect, retained "online" published once connected.
func configureLWT(opts *pahomqtt.ClientOptions, _ string) {
	opts.SetWill(Topics{}.Hello(), "offline", 1, true)
}
