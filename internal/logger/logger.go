package logger

import "go.uber.org/zap"

var Log = zap.NewNop()

// Init replaces Log with a production JSON logger, or a console logger
// outside production.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func Sync() {
	_ = Log.Sync()
}
