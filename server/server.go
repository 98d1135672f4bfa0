// Package server supervises one peer driver per configured neighbor: it
// starts each driver and polls it forever in its own goroutine, managed
// by a tomb.Tomb so the whole fleet can be torn down together.
package server

import (
	"time"

	log "github.com/sirupsen/logrus"
	tomb "gopkg.in/tomb.v2"

	"bgpd/config"
	"bgpd/peer"
)

// pollInterval caps CPU use while a session is idle; it is not required
// for correctness.
const pollInterval = 10 * time.Millisecond

// Server owns a tomb.Tomb supervising one goroutine per peer driver.
type Server struct {
	t       tomb.Tomb
	drivers []*peer.Driver
}

// New creates a driver for every cfg and returns a Server ready to Run.
func New(cfgs []config.Config) *Server {
	s := &Server{}
	for _, cfg := range cfgs {
		s.drivers = append(s.drivers, peer.New(cfg))
	}
	return s
}

// Run starts every driver and spawns its polling goroutine under the
// tomb. It returns immediately; call Wait to block until all drivers
// stop or Kill to request shutdown.
func (s *Server) Run() {
	for _, d := range s.drivers {
		d.Start()
		driver := d
		s.t.Go(func() error {
			return s.pollLoop(driver)
		})
	}
}

func (s *Server) pollLoop(d *peer.Driver) error {
	for {
		select {
		case <-s.t.Dying():
			return nil
		default:
		}

		if err := d.Step(); err != nil {
			log.WithError(err).Error("peer driver terminated")
			return err
		}

		time.Sleep(pollInterval)
	}
}

// Kill requests every driver to stop.
func (s *Server) Kill() {
	s.t.Kill(nil)
}

// Wait blocks until every driver goroutine has returned.
func (s *Server) Wait() error {
	return s.t.Wait()
}
