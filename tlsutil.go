package main

import (
	"crypto/tls"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// keypairReloader serves the TLS certificate and reloads it from disk on SIGHUP.
type keypairReloader struct {
	certMu   sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

func NewKeypairReloader(certPath, keyPath string) (*keypairReloader, error) {
	kpr := &keypairReloader{
		certPath: certPath,
		keyPath:  keyPath,
	}

	if err := kpr.reload(); err != nil {
		return nil, err
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGHUP)

		for range c {
			logger.Infof("received SIGHUP, reloading TLS certificate %s and key %s", certPath, keyPath)

			if err := kpr.reload(); err != nil {
				logger.Errorf("keeping old TLS certificate, loading the new one failed: %s", err)
			}
		}
	}()

	return kpr, nil
}

func (kpr *keypairReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(kpr.certPath, kpr.keyPath)
	if err != nil {
		return err
	}

	kpr.certMu.Lock()
	kpr.cert = &cert
	kpr.certMu.Unlock()

	return nil
}

func (kpr *keypairReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		kpr.certMu.RLock()
		defer kpr.certMu.RUnlock()

		return kpr.cert, nil
	}
}
