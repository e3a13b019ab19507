package cds

import "encoding/xml"

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Browse                *browseRequestXML      `xml:"Browse"`
	GetSearchCapabilities *struct{}              `xml:"GetSearchCapabilities"`
	GetSortCapabilities   *struct{}              `xml:"GetSortCapabilities"`
	GetSystemUpdateID     *struct{}              `xml:"GetSystemUpdateID"`
}

type browseRequestXML struct {
	ObjectID       string `xml:"ObjectID"`
	BrowseFlag     string `xml:"BrowseFlag"`
	Filter         string `xml:"Filter"`
	StartingIndex  int    `xml:"StartingIndex"`
	RequestedCount int    `xml:"RequestedCount"`
	SortCriteria   string `xml:"SortCriteria"`
}

// BrowseRequest is the parsed, validated form of a ContentDirectory
// Browse action.
type BrowseRequest struct {
	ObjectID       string
	Flag           string // "BrowseMetadata" or "BrowseDirectChildren"
	StartingIndex  int
	RequestedCount int
	Filter         string
	SortCriteria   string
}

func parseSOAP(body []byte) (*soapEnvelope, error) {
	var env soapEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (b *browseRequestXML) toBrowseRequest() BrowseRequest {
	return BrowseRequest{
		ObjectID:       b.ObjectID,
		Flag:           b.BrowseFlag,
		StartingIndex:  b.StartingIndex,
		RequestedCount: b.RequestedCount,
		Filter:         b.Filter,
		SortCriteria:   b.SortCriteria,
	}
}
