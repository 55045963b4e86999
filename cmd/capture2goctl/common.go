package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/internal/config"
	"github.com/sensorstim/capture2go/internal/discovery"
	"github.com/sensorstim/capture2go/internal/session"
	"github.com/sensorstim/capture2go/pkg/device"
)

// openDevice connects to target ("usb", a BLE address, or a playback
// path), runs the handshake, and returns a ready-to-use Device. Callers
// own calling close() once done.
func openDevice(ctx context.Context, target string) (*device.Device, func(), error) {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	entry := log.WithField("cmd", "capture2goctl")

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	tgt := discovery.ParseTarget(target)
	transports, err := discovery.Connect(ctx, []discovery.Target{tgt}, entry, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	sess := session.New(transports[0], cfg, entry)
	if err := sess.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("session connect: %w", err)
	}

	dev := device.New(sess, cfg, entry)
	if _, err := dev.Init(ctx); err != nil {
		sess.Disconnect()
		return nil, nil, fmt.Errorf("init: %w", err)
	}

	return dev, func() { sess.Disconnect() }, nil
}
