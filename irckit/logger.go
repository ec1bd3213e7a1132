package irckit

import (
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithFields(logrus.Fields{"prefix": "irckit"})

func SetLogger(l *logrus.Entry) {
	logger = l
}
