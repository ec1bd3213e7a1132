package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/42wim/matrixircd/bridge/matrix"
	"github.com/42wim/matrixircd/config"
	"github.com/42wim/matrixircd/gateway"
	"github.com/42wim/matrixircd/irckit"
	"github.com/google/gops/agent"
	prefixed "github.com/matterbridge/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	version = "0.1.0-dev"
	githash string
	logger  *logrus.Entry
	v       *viper.Viper
)

func main() {
	ourlog := logrus.New()
	ourlog.SetFormatter(&prefixed.TextFormatter{
		PrefixPadding: 13,
		DisableColors: true,
		FullTimestamp: true,
	})
	logger = ourlog.WithFields(logrus.Fields{"prefix": "main"})

	flagDebug := flag.Bool("debug", false, "enable debug logging")
	flagTrace := flag.Bool("trace", false, "enable trace logging")
	flagBind := flag.String("bind", "127.0.0.1:6667", "interface:port to bind to")
	flagTLSBind := flag.String("tlsbind", "", "interface:port to bind to for TLS connections")
	flagTLSDir := flag.String("tlsdir", ".", "directory to look for key.pem and cert.pem")
	flagServer := flag.String("matrixserver", "", "matrix homeserver url, e.g. https://matrix.org")
	flagConfig := flag.String("conf", "", "config file")
	flagVersion := flag.Bool("version", false, "show version")
	flagGops := flag.Bool("gops", false, "enable gops agent")
	flag.Parse()

	if *flagVersion {
		fmt.Printf("version: %s %s\n", version, githash)
		return
	}

	if *flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			logger.Error(err)
		}
	}

	var err error

	v, err = config.LoadConfig(*flagConfig)
	if err != nil {
		logger.Fatalf("could not load config: %s", err)
	}

	config.Logger = ourlog.WithFields(logrus.Fields{"prefix": "config"})

	if err := v.BindPFlag("debug", flag.Lookup("debug")); err != nil {
		logger.Fatal(err)
	}

	if err := v.BindPFlag("trace", flag.Lookup("trace")); err != nil {
		logger.Fatal(err)
	}

	if *flagDebug || v.GetBool("debug") {
		logger.Info("enabling debug")
		ourlog.SetLevel(logrus.DebugLevel)
	}

	if *flagTrace || v.GetBool("trace") {
		logger.Info("enabling trace")
		ourlog.SetLevel(logrus.TraceLevel)
	}

	matrix.SetLogger(ourlog.WithFields(logrus.Fields{"prefix": "bridge/matrix"}))
	irckit.SetLogger(ourlog.WithFields(logrus.Fields{"prefix": "irckit"}))
	gateway.SetLogger(ourlog.WithFields(logrus.Fields{"prefix": "gateway"}))

	if flag.CommandLine.Changed("bind") {
		v.Set("bind", *flagBind)
	}

	if *flagTLSBind != "" {
		v.Set("tlsbind", *flagTLSBind)
	}

	if flag.CommandLine.Changed("tlsdir") {
		v.Set("tlsdir", *flagTLSDir)
	}

	if *flagServer != "" {
		v.Set("matrix.server", *flagServer)
	}

	if v.GetString("matrix.server") == "" {
		logger.Fatal("no matrix server configured, use --matrixserver or matrix.server in the config")
	}

	logger.Infof("running version %s %s", version, githash)

	if strings.Contains(version, "-dev") {
		logger.Infof("WARNING: THIS IS A DEVELOPMENT VERSION. Things may break.")
	}

	if bind := v.GetString("tlsbind"); bind != "" {
		go listenTLS(bind, v.GetString("tlsdir"))
	}

	socket, err := net.Listen("tcp", v.GetString("bind"))
	if err != nil {
		logger.Fatalf("can not listen on %s: %v", v.GetString("bind"), err)
	}

	logger.Infof("listening on %s", v.GetString("bind"))
	start(socket)
}

func listenTLS(bind, dir string) {
	kpr, err := NewKeypairReloader(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))
	if err != nil {
		logger.Fatalf("can not load TLS keypair from %s: %s", dir, err)
	}

	socket, err := tls.Listen("tcp", bind, &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: kpr.GetCertificateFunc(),
	})
	if err != nil {
		logger.Fatalf("can not listen on %s: %v", bind, err)
	}

	logger.Infof("listening on %s (TLS)", bind)
	start(socket)
}

func start(socket net.Listener) {
	defer socket.Close()

	for {
		conn, err := socket.Accept()
		if err != nil {
			logger.Errorf("failed to accept connection: %v", err)
			os.Exit(1)
		}

		go serve(conn)
	}
}

// serve runs one session, one IRC connection bridged to one matrix login.
func serve(conn net.Conn) {
	defer conn.Close()

	logger.Infof("new connection: %s", conn.RemoteAddr())

	remote, err := matrix.New(v)
	if err != nil {
		logger.Errorf("matrix client for %s: %s", conn.RemoteAddr(), err)
		return
	}

	local := irckit.NewClientNet(conn, irckit.ServerConfig{
		Name:    v.GetString("servername"),
		Version: version,
		Motd:    v.GetStringSlice("motd"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gateway.New(v, local, remote).Run(ctx, local.Commands(ctx)); err != nil {
		logger.Errorf("session of %s ended: %s", conn.RemoteAddr(), err)
		return
	}

	logger.Infof("session of %s ended", conn.RemoteAddr())
}
