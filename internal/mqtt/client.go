// Package mqtt wraps the paho client with the connection behavior the
// bridge wants: auto-reconnect, connect retry, and a Last Will that
// marks the bridge offline.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const clientIDPrefix = "flux2mqtt"

// Conn is the slice of an MQTT connection the entity layer needs.
type Conn interface {
	// Publish sends payload to topic and waits for the broker ack.
	Publish(topic string, qos byte, retained bool, payload string) error

	// Subscribe routes messages on topic to handler. The handler runs
	// on a paho goroutine; it must not publish synchronously from a
	// connect callback.
	Subscribe(topic string, qos byte, handler func(topic, payload string)) error

	// Unsubscribe removes subscriptions.
	Unsubscribe(topics ...string) error
}

// Options configures a broker connection.
type Options struct {
	BrokerURL string
	Username  string
	Password  string

	// ClientID is appended to the flux2mqtt client id prefix.
	ClientID string

	// WillTopic receives WillPayload (retained) if the connection is
	// lost without a clean disconnect.
	WillTopic   string
	WillPayload string

	// BirthPayload, when set together with WillTopic, is published
	// retained to WillTopic after every (re)connect, undoing a fired
	// will.
	BirthPayload string

	// OnConnect is invoked every time the connection (re)establishes.
	OnConnect func()
}

// Client is a live paho-backed Conn.
type Client struct {
	c   paho.Client
	log *slog.Logger
}

// Interface guard
var _ Conn = (*Client)(nil)

// Dial connects to the broker and blocks until the first connection
// attempt resolves or ctx is done. With connect retry enabled an
// unreachable broker would otherwise block forever.
func Dial(ctx context.Context, opts Options, log *slog.Logger) (*Client, error) {
	cl := &Client{log: log}

	po := paho.NewClientOptions()
	po.SetKeepAlive(60 * time.Second)
	po.SetCleanSession(true)
	po.AddBroker(opts.BrokerURL)
	po.SetClientID(clientIDPrefix + "-" + opts.ClientID)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}
	po.SetAutoReconnect(true)
	po.SetConnectRetry(true)
	po.SetConnectRetryInterval(time.Minute)
	po.SetOrderMatters(false)
	if opts.WillTopic != "" {
		po.SetWill(opts.WillTopic, opts.WillPayload, 1, true)
	}
	po.SetConnectionLostHandler(func(c paho.Client, err error) {
		log.Warn("connection to broker lost", "error", err)
	})
	po.SetOnConnectHandler(func(c paho.Client) {
		log.Info("connected to broker", "broker", opts.BrokerURL)
		// Run off the paho callback goroutine so the handler may
		// publish.
		go announceConnected(cl, opts, log)
	})

	cl.c = paho.NewClient(po)
	token := cl.c.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("mqtt connect: %w", err)
		}
	case <-ctx.Done():
		cl.c.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: %w", ctx.Err())
	}
	return cl, nil
}

// announceConnected republishes the birth marker and runs the connect
// callback, in that order.
func announceConnected(c Conn, opts Options, log *slog.Logger) {
	if opts.WillTopic != "" && opts.BirthPayload != "" {
		if err := c.Publish(opts.WillTopic, 1, true, opts.BirthPayload); err != nil {
			log.Error("birth publish failed", "topic", opts.WillTopic, "error", err)
		}
	}
	if opts.OnConnect != nil {
		opts.OnConnect()
	}
}

func (cl *Client) Publish(topic string, qos byte, retained bool, payload string) error {
	token := cl.c.Publish(topic, qos, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		cl.log.Error("publish failed", "topic", topic, "error", err)
		return err
	}
	return nil
}

func (cl *Client) Subscribe(topic string, qos byte, handler func(topic, payload string)) error {
	token := cl.c.Subscribe(topic, qos, func(c paho.Client, msg paho.Message) {
		handler(msg.Topic(), string(msg.Payload()))
	})
	token.Wait()
	return token.Error()
}

func (cl *Client) Unsubscribe(topics ...string) error {
	token := cl.c.Unsubscribe(topics...)
	token.Wait()
	return token.Error()
}

// Close publishes nothing; callers wanting a clean offline marker
// publish it before disconnecting.
func (cl *Client) Close() {
	cl.c.Disconnect(250)
}
