package gateway

import (
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithFields(logrus.Fields{"prefix": "gateway"})

func SetLogger(l *logrus.Entry) {
	logger = l
}
