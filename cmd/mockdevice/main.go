package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

// Emulates a fingerprint terminal for local testing: accepts connections,
// logs the auth handshake, and answers poll commands with a couple of
// sample records.
func main() {
	addr := flag.String("addr", ":4370", "Listen address")
	serial := flag.String("serial", "ZK123456", "Device serial to stamp on records")
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", *addr, err)
	}
	log.Printf("mock device listening on %s", *addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("accept failed: %v", err)
			continue
		}
		go serve(conn, *serial)
	}
}

func serve(conn net.Conn, serial string) {
	defer conn.Close()
	log.Printf("connector attached from %s", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	sent := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "USER:"), strings.HasPrefix(line, "PASS:"):
			log.Printf("handshake: %s", line)
		case line == "GET_RECORDS", line == "GETATT", line == "*GETATT*":
			if sent {
				continue
			}
			sent = true
			now := time.Now().UTC()
			in := now.Add(-9 * time.Hour).Format("2006-01-02 15:04:05")
			out := now.Format("2006-01-02 15:04:05")
			fmt.Fprintf(conn, "4,%s,0,%s\r\n", in, serial)
			fmt.Fprintf(conn, "4,%s,1,%s\r\n", out, serial)
			log.Printf("sent sample records")
		default:
			log.Printf("unrecognised command: %q", line)
		}
	}
}
