package logger

import "go.uber.org/zap"

// Init builds the process logger and installs it as the zap global, so
// packages can use zap.L()/zap.S() without threading a logger around.
func Init(debug bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}
