// Command bgpd concatenates its arguments into a single peer
// configuration string, parses it, and runs that one peer session until
// it fails or is killed.
package main

import (
	"os"
	"strings"

	"github.com/golang/glog"

	"bgpd/config"
	"bgpd/server"
)

func main() {
	raw := strings.TrimSpace(strings.Join(os.Args[1:], " "))

	cfg, err := config.Parse(raw)
	if err != nil {
		glog.Exitf("cannot parse peer config: %v", err)
	}

	s := server.New([]config.Config{cfg})
	s.Run()

	if err := s.Wait(); err != nil {
		glog.Exitf("peer session terminated: %v", err)
	}

	os.Exit(0)
}
