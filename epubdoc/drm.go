package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"path"
	"strings"
)

// ErrDRMProtected is returned for books whose content is encrypted.
var ErrDRMProtected = errors.New("epub: DRM-protected content cannot be processed")

// META-INF/encryption.xml
type encryptionXML struct {
	XMLName       xml.Name `xml:"encryption"`
	EncryptedData []struct {
		Method struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
		Reference struct {
			URI string `xml:"URI,attr"`
		} `xml:"CipherData>CipherReference"`
	} `xml:"EncryptedData"`
}

// checkForDRM rejects books carrying Adobe rights or encrypted content.
// Obfuscated fonts are allowed.
func checkForDRM(files map[string]*zip.File) error {
	if _, ok := files["META-INF/rights.xml"]; ok {
		return ErrDRMProtected
	}
	f, ok := files["META-INF/encryption.xml"]
	if !ok {
		return nil
	}
	var enc encryptionXML
	if err := decodeXML(f, &enc); err != nil {
		return ErrDRMProtected
	}
	for _, ed := range enc.EncryptedData {
		if isFontObfuscation(ed.Method.Algorithm) {
			continue
		}
		if isContentFile(ed.Reference.URI) {
			return ErrDRMProtected
		}
	}
	return nil
}

func isFontObfuscation(algorithm string) bool {
	a := strings.ToLower(algorithm)
	return strings.Contains(a, "obfuscation") &&
		(strings.Contains(a, "adobe.com") || strings.Contains(a, "idpf.org"))
}

func isContentFile(uri string) bool {
	switch strings.ToLower(path.Ext(uri)) {
	case ".xhtml", ".html", ".htm", ".xml", ".css":
		return true
	}
	return false
}
