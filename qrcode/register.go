package qrcode

import "github.com/qrscan/qrscan"

func init() {
	qrscan.RegisterReader(qrscan.FormatQRCode, func(opts *qrscan.DecodeOptions) qrscan.Reader {
		return NewReader()
	})
}
