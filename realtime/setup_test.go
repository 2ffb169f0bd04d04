package realtime

import (
	"io"

	"tonotes/utils"
)

func init() {
	utils.InitLogger(utils.LogConfig{Level: "disabled", Output: io.Discard})
}
