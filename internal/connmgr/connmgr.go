// Package connmgr implements the ConnectionManager:1 SOAP service: a
// static protocol-info advertisement and a single fixed connection.
package connmgr

import (
	"bytes"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"dlnabridge/internal/templates"
)

// protocolInfo lists the http-get tuples this server can source, per
// the DLNA profiles the stream proxy and transcoding targets support.
var protocolInfo = []string{
	"http-get:*:video/mp4:DLNA.ORG_PN=AVC_MP4_MP_SD_AAC_MULT5;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000",
	"http-get:*:video/mp4:DLNA.ORG_PN=AVC_MP4_MP_HD_720p_AAC;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000",
	"http-get:*:video/mp4:DLNA.ORG_PN=AVC_MP4_MP_HD_1080i_AAC;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000",
	"http-get:*:video/x-matroska:*",
	"http-get:*:video/avi:*",
	"http-get:*:audio/mpeg:DLNA.ORG_PN=MP3;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000",
	"http-get:*:audio/mp4:DLNA.ORG_PN=AAC_ISO_320;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=01700000000000000000000000000000",
	"http-get:*:audio/flac:*",
	"http-get:*:image/jpeg:DLNA.ORG_PN=JPEG_SM;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=00900000000000000000000000000000",
	"http-get:*:image/jpeg:DLNA.ORG_PN=JPEG_MED;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=00900000000000000000000000000000",
	"http-get:*:image/jpeg:DLNA.ORG_PN=JPEG_LRG;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=00900000000000000000000000000000",
}

var protocolInfoSource = strings.Join(protocolInfo, ",")

type envelope struct {
	Body struct {
		GetProtocolInfo          *struct{} `xml:"GetProtocolInfo"`
		GetCurrentConnectionIDs  *struct{} `xml:"GetCurrentConnectionIDs"`
		GetCurrentConnectionInfo *struct{} `xml:"GetCurrentConnectionInfo"`
	} `xml:"Body"`
}

// ConnectionManager serves the ConnectionManager:1 control URL.
type ConnectionManager struct {
	logger   *slog.Logger
	renderer *templates.Renderer
}

func New(logger *slog.Logger, renderer *templates.Renderer) *ConnectionManager {
	return &ConnectionManager{logger: logger, renderer: renderer}
}

func (cm *ConnectionManager) HandleControl(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Server", "Linux/5.10 UPnP/1.0 DLNADOC/1.50 dlnabridge/1.0")
	w.Header().Set("EXT", "")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		cm.writeFault(w)
		return
	}
	defer r.Body.Close()

	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		cm.logger.Warn("connmgr: soap parse failure", "error", err)
		cm.writeFault(w)
		return
	}

	switch {
	case env.Body.GetProtocolInfo != nil:
		cm.renderer.Render(w, "protocol_info.xml", struct{ Source string }{Source: protocolInfoSource})
	case env.Body.GetCurrentConnectionIDs != nil:
		cm.renderer.Render(w, "connection_ids.xml", nil)
	case env.Body.GetCurrentConnectionInfo != nil:
		cm.renderer.Render(w, "connection_info.xml", nil)
	default:
		cm.writeFault(w)
	}
}

func (cm *ConnectionManager) writeFault(w http.ResponseWriter) {
	data := struct {
		FaultCode, FaultString, ErrorDescription string
		ErrorCode                                int
	}{
		FaultCode:        "s:Client",
		FaultString:      "UPnPError",
		ErrorCode:        401,
		ErrorDescription: "Invalid Action",
	}
	var buf bytes.Buffer
	if err := cm.renderer.RenderTo(&buf, "browse_fault.xml", data); err != nil {
		cm.logger.Error("connmgr: render fault", "error", err)
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write(buf.Bytes())
}
