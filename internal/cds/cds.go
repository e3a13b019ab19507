// Package cds implements the ContentDirectory SOAP service: Browse
// dispatch, ObjectID resolution, inclusion/sort/pagination rules and
// DIDL-Lite XML generation.
package cds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dlnabridge/internal/catalog"
	"dlnabridge/internal/observability"
	"dlnabridge/internal/templates"
)

// ContentDirectory serves the ContentDirectory:1 control URL.
type ContentDirectory struct {
	logger   *slog.Logger
	catalog  catalog.Client
	renderer *templates.Renderer
	baseURL  func(r *http.Request) string
}

func New(logger *slog.Logger, client catalog.Client, renderer *templates.Renderer, baseURL func(r *http.Request) string) *ContentDirectory {
	return &ContentDirectory{logger: logger, catalog: client, renderer: renderer, baseURL: baseURL}
}

// HandleControl is the POST /ContentDirectory/control handler.
func (cd *ContentDirectory) HandleControl(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { observability.BrowseRequestDuration.Observe(time.Since(start).Seconds()) }()

	w.Header().Set("Server", "Linux/5.10 UPnP/1.0 DLNADOC/1.50 dlnabridge/1.0")
	w.Header().Set("EXT", "")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		cd.writeFault(w, http.StatusInternalServerError, "s:Server", err.Error(), 501, "Action Failed")
		return
	}
	defer r.Body.Close()

	env, err := parseSOAP(body)
	if err != nil {
		cd.logger.Warn("cds: soap parse failure", "error", err)
		cd.writeFault(w, http.StatusUnauthorized, "s:Client", "UPnPError", 401, "Invalid Action")
		return
	}

	switch {
	case env.Body.Browse != nil:
		cd.handleBrowse(w, r, env.Body.Browse.toBrowseRequest())
	case env.Body.GetSearchCapabilities != nil:
		cd.renderer.Render(w, "search_caps.xml", nil)
	case env.Body.GetSortCapabilities != nil:
		cd.renderer.Render(w, "sort_caps.xml", nil)
	case env.Body.GetSystemUpdateID != nil:
		fmt.Fprint(w, systemUpdateIDBody)
	default:
		cd.writeFault(w, http.StatusUnauthorized, "s:Client", "UPnPError", 401, "Invalid Action")
	}
}

const systemUpdateIDBody = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body><u:GetSystemUpdateIDResponse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1"><Id>0</Id></u:GetSystemUpdateIDResponse></s:Body>
</s:Envelope>`

func (cd *ContentDirectory) handleBrowse(w http.ResponseWriter, r *http.Request, req BrowseRequest) {
	ctx := r.Context()
	resolved := parseObjectID(req.ObjectID)

	rc := renderContext{
		renderer:  cd.renderer,
		baseURL:   cd.baseURL(r),
		isSamsung: strings.Contains(strings.ToLower(r.UserAgent()), "samsung"),
		imageURLOf: func(itemID string) string {
			u, err := cd.catalog.ImageURL(ctx, itemID, "Primary")
			if err != nil {
				return ""
			}
			return u
		},
	}

	if req.Flag == "BrowseMetadata" {
		cd.handleBrowseMetadata(w, ctx, rc, resolved)
		return
	}

	switch resolved.kind {
	case kindRoot:
		cd.browseLibraries(w, ctx, rc, req)
	case kindLibrary:
		cd.browseChildren(w, ctx, rc, req, resolved.id, libraryObjectID(resolved.id))
	case kindItem:
		cd.browseChildren(w, ctx, rc, req, resolved.id, resolved.id)
	default:
		cd.writeEmptyBrowse(w)
	}
}

func (cd *ContentDirectory) browseLibraries(w http.ResponseWriter, ctx context.Context, rc renderContext, req BrowseRequest) {
	libraries, err := cd.catalog.ListLibraries(ctx)
	if err != nil {
		cd.writeFault(w, http.StatusInternalServerError, "s:Server", err.Error(), 501, "Action Failed")
		return
	}

	var filtered []catalog.CatalogItem
	for _, lib := range libraries {
		if included(lib) {
			filtered = append(filtered, lib)
		}
	}
	sortChildren(filtered, req.SortCriteria, rc.isSamsung)
	total := len(filtered)
	page := paginate(filtered, req.StartingIndex, req.RequestedCount)

	didl, err := buildDIDLWithClass(rc, page, func(item catalog.CatalogItem) string {
		return libraryObjectID(item.ID)
	}, "0", func(item catalog.CatalogItem) string {
		return libraryRootClass(item.CollectionType)
	})
	if err != nil {
		cd.writeFault(w, http.StatusInternalServerError, "s:Server", err.Error(), 501, "Action Failed")
		return
	}
	cd.writeBrowseResult(w, didl, len(page), total)
}

func (cd *ContentDirectory) browseChildren(w http.ResponseWriter, ctx context.Context, rc renderContext, req BrowseRequest, parentCatalogID, didlParentID string) {
	children, err := cd.catalog.ListChildren(ctx, parentCatalogID)
	if err != nil {
		cd.writeFault(w, http.StatusInternalServerError, "s:Server", err.Error(), 501, "Action Failed")
		return
	}

	var filtered []catalog.CatalogItem
	for _, c := range children {
		if included(c) {
			filtered = append(filtered, c)
		}
	}
	sortChildren(filtered, req.SortCriteria, rc.isSamsung)
	total := len(filtered)
	page := paginate(filtered, req.StartingIndex, req.RequestedCount)

	didl, err := buildDIDL(rc, page, func(item catalog.CatalogItem) string {
		return item.ID
	}, didlParentID)
	if err != nil {
		cd.writeFault(w, http.StatusInternalServerError, "s:Server", err.Error(), 501, "Action Failed")
		return
	}
	cd.writeBrowseResult(w, didl, len(page), total)
}

func (cd *ContentDirectory) handleBrowseMetadata(w http.ResponseWriter, ctx context.Context, rc renderContext, resolved objectID) {
	switch resolved.kind {
	case kindRoot:
		didl := didlHeader + `<container id="0" parentID="-1" restricted="1" childCount="0"><dc:title>root</dc:title><upnp:class>object.container.storageFolder</upnp:class></container>` + didlFooter
		cd.writeBrowseResult(w, didl, 1, 1)
	case kindLibrary, kindItem:
		item, err := cd.catalog.GetItem(ctx, resolved.id)
		if err != nil {
			cd.writeFault(w, http.StatusInternalServerError, "s:Server", err.Error(), 501, "Action Failed")
			return
		}
		id := item.ID
		parentID := item.ParentID
		if resolved.kind == kindLibrary {
			id = libraryObjectID(item.ID)
			parentID = "0"
		}
		var buf bytes.Buffer
		var rErr error
		if item.IsContainer() {
			class := upnpClass(item.Type)
			if resolved.kind == kindLibrary {
				class = libraryRootClass(item.CollectionType)
			}
			rErr = renderContainerClass(rc, &buf, *item, id, parentID, class)
		} else {
			rErr = renderItem(rc, &buf, *item, id, parentID)
		}
		if rErr != nil {
			cd.writeFault(w, http.StatusInternalServerError, "s:Server", rErr.Error(), 501, "Action Failed")
			return
		}
		didl := didlHeader + buf.String() + didlFooter
		cd.writeBrowseResult(w, didl, 1, 1)
	default:
		cd.writeEmptyBrowse(w)
	}
}

// paginate applies starting_index and requested_count (0 = unbounded)
// after sorting. Out-of-range inputs clamp rather than error.
func paginate(items []catalog.CatalogItem, startingIndex, requestedCount int) []catalog.CatalogItem {
	if startingIndex < 0 {
		startingIndex = 0
	}
	if startingIndex > len(items) {
		startingIndex = len(items)
	}
	end := len(items)
	if requestedCount > 0 && startingIndex+requestedCount < end {
		end = startingIndex + requestedCount
	}
	return items[startingIndex:end]
}

func (cd *ContentDirectory) writeBrowseResult(w http.ResponseWriter, didl string, numberReturned, totalMatches int) {
	data := struct {
		Result         string
		NumberReturned int
		TotalMatches   int
		UpdateID       int
	}{
		Result:         xmlEscape(didl),
		NumberReturned: numberReturned,
		TotalMatches:   totalMatches,
		UpdateID:       0,
	}
	if err := cd.renderer.Render(w, "browse_response.xml", data); err != nil {
		cd.logger.Error("cds: render browse response", "error", err)
	}
}

func (cd *ContentDirectory) writeEmptyBrowse(w http.ResponseWriter) {
	empty := didlHeader + didlFooter
	cd.writeBrowseResult(w, empty, 0, 0)
}

func (cd *ContentDirectory) writeFault(w http.ResponseWriter, status int, faultCode, faultString string, errorCode int, errorDescription string) {
	data := struct {
		FaultCode, FaultString, ErrorDescription string
		ErrorCode                                int
	}{
		FaultCode:        faultCode,
		FaultString:      faultString,
		ErrorCode:        errorCode,
		ErrorDescription: xmlEscape(errorDescription),
	}
	var buf bytes.Buffer
	if err := cd.renderer.RenderTo(&buf, "browse_fault.xml", data); err != nil {
		cd.logger.Error("cds: render fault", "error", err)
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
