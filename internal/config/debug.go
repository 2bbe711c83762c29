package config

import "os"

func IsDebug() bool {
	return os.Getenv("VIBECTX_DEBUG") == "1"
}
