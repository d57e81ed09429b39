// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"
)

// SerialOptions selects the USB serial device.
type SerialOptions struct {
	Port     string // e.g. /dev/ttyGS0, /dev/ttyUSB0
	BaudRate uint
}

// Reports waiting for the writer goroutine. A full backlog drops the newest.
const serialBacklog = 4

// Serial is a line-oriented link over a serial port.
type Serial struct {
	*Queue
	port io.ReadWriteCloser
	out  chan []byte

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// OpenSerial opens the port and starts the reader and writer goroutines.
func OpenSerial(opts SerialOptions) (*Serial, error) {
	serialOpts := serial.OpenOptions{
		PortName:              opts.Port,
		BaudRate:              opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", opts.Port, err)
	}
	logrus.Infof("serial: port opened on %s at %d baud", opts.Port, opts.BaudRate)
	return NewSerial(port), nil
}

// NewSerial runs the serial protocol over an already open port.
func NewSerial(port io.ReadWriteCloser) *Serial {
	s := &Serial{
		Queue: NewQueue(DefaultQueueSize),
		port:  port,
		out:   make(chan []byte, serialBacklog),
		done:  make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	return s
}

func (s *Serial) readLoop() {
	defer s.wg.Done()
	reader := bufio.NewReader(s.port)
	for {
		line, err := reader.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			s.Push(line)
		}
		if err != nil {
			select {
			case <-s.done:
			default:
				logrus.Warnf("serial: read error: %v", err)
			}
			return
		}
	}
}

func (s *Serial) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case report := <-s.out:
			if _, err := s.port.Write(report); err != nil {
				logrus.Debugf("serial: write error: %v", err)
			}
		}
	}
}

func (s *Serial) Output(report []byte) {
	m := make([]byte, len(report))
	copy(m, report)
	select {
	case s.out <- m:
	default:
		logrus.Debug("serial: backlog full, report dropped")
	}
}

// Close stops both goroutines and closes the port.
func (s *Serial) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.port.Close()
		s.wg.Wait()
	})
	return err
}
