// Package web serves a browser over a loaded item workspace: an HTML list of
// the item database with inline thumbnails, plus PNG and GIF endpoints for
// individual sprites and items.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/nfnt/resize"
	"github.com/vincent-petithory/dataurl"

	"github.com/karolak6612/itemedit/compositor"
	"github.com/karolak6612/itemedit/things"
)

type Handler struct {
	itemLock sync.Mutex
	th       *things.Things

	sprPath string
}

// NewHandler constructs the web handler for the passed workspace. sprPath is
// only consulted for Last-Modified headers and may be empty.
func NewHandler(th *things.Things, sprPath string) *Handler {
	return &Handler{
		th:      th,
		sprPath: sprPath,
	}
}

const listPageSize = 100

var listTemplate = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html>
<head><title>items</title>
<style>
td, th { padding: 2px 8px; text-align: left; }
img { image-rendering: pixelated; width: 32px; height: 32px; }
</style>
</head>
<body>
<h1>items {{.First}}..{{.Last}}</h1>
<p>
{{if .HasPrev}}<a href="/?page={{.PrevPage}}">&laquo; prev</a>{{end}}
<a href="/?page={{.NextPage}}">next &raquo;</a>
</p>
<table>
<tr><th></th><th>server ID</th><th>client ID</th><th>name</th></tr>
{{range .Items}}
<tr>
<td><img src="{{.Thumb}}" alt=""></td>
<td><a href="/item/{{.ServerID}}">{{.ServerID}}</a></td>
<td>{{if .ClientID}}<a href="/item/c{{.ClientID}}">{{.ClientID}}</a>{{end}}</td>
<td>{{.Name}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

type listRow struct {
	ServerID uint16
	ClientID uint16
	Name     string
	Thumb    template.URL
}

type listPage struct {
	First, Last        uint16
	HasPrev            bool
	PrevPage, NextPage int
	Items              []listRow
}

// listHandler renders a page of the item database with each row carrying its
// composed thumbnail inlined as a data URL, so the list renders in one
// round trip.
func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	h.itemLock.Lock()
	defer h.itemLock.Unlock()

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
		if page < 0 {
			page = 0
		}
	}

	list := h.th.Items()
	if list == nil {
		http.Error(w, "no item database loaded", http.StatusServiceUnavailable)
		return
	}

	data := listPage{
		HasPrev:  page > 0,
		PrevPage: page - 1,
		NextPage: page + 1,
	}
	start := page * listPageSize
	for i := start; i < len(list.Items) && i < start+listPageSize; i++ {
		it := &list.Items[i]
		row := listRow{
			ServerID: it.ID,
			ClientID: it.ClientID,
			Name:     it.DisplayName(),
			Thumb:    template.URL(h.thumbDataURL(it.ID)),
		}
		if data.First == 0 {
			data.First = it.ID
		}
		data.Last = it.ID
		data.Items = append(data.Items, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := listTemplate.Execute(w, data); err != nil {
		glog.Errorf("rendering item list: %v", err)
	}
}

// thumbDataURL composes the item, scales it down to a single tile and
// returns it as an image/png data URL. Items that cannot be composed come
// out as an empty string, which renders as a broken inline image rather
// than failing the page.
func (h *Handler) thumbDataURL(serverID uint16) string {
	itm, err := h.th.Item(serverID)
	if err != nil {
		return ""
	}
	img, err := itm.Image()
	if err != nil {
		glog.V(1).Infof("thumbnail for item %d: %v", serverID, err)
		return ""
	}
	thumb := resize.Thumbnail(32, 32, img, resize.NearestNeighbor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return ""
	}
	return dataurl.New(buf.Bytes(), "image/png").String()
}

func (h *Handler) itemHandler(w http.ResponseWriter, r *http.Request) {
	h.itemLock.Lock()
	defer h.itemLock.Unlock()

	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}

	itm, err := h.th.Item(uint16(idx))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.servePNG(w, r, "item", idx, itm)
}

func (h *Handler) citemHandler(w http.ResponseWriter, r *http.Request) {
	h.itemLock.Lock()
	defer h.itemLock.Unlock()

	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}

	itm, err := h.th.ItemWithClientID(uint16(idx))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.servePNG(w, r, "citem", idx, itm)
}

func (h *Handler) servePNG(w http.ResponseWriter, r *http.Request, kind string, idx int, itm *things.Item) {
	generation := 1 // bump if the way we generate it changes
	mime := "image/png"
	etag := fmt.Sprintf(`W/"%s:%d:%08x:%08x:%d:%s"`, kind, generation, h.th.AtlasSignature(), h.th.DatasetSignature(), idx, mime)

	if r.Header.Get("If-None-Match") == etag {
		h.cacheHeaders(w, etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img, err := itm.Image()
	if err != nil {
		http.Error(w, "image could not be generated", http.StatusInternalServerError)
		glog.Errorf("composing %s %d: %v", kind, idx, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	h.cacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}

// itemGIFHandler serves the item's animation as a looping GIF, one frame per
// animation phase. Non-animated items come out as a single-frame GIF.
func (h *Handler) itemGIFHandler(w http.ResponseWriter, r *http.Request) {
	h.itemLock.Lock()
	defer h.itemLock.Unlock()

	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}

	itm, err := h.th.Item(uint16(idx))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	ci := itm.Client
	atlas := h.th.Atlas()
	if ci == nil || atlas == nil {
		http.Error(w, "no client appearance for item", http.StatusNotFound)
		return
	}

	generation := 1 // bump if the way we generate it changes
	mime := "image/gif"
	etag := fmt.Sprintf(`W/"gif:%d:%08x:%08x:%d:%s"`, generation, h.th.AtlasSignature(), h.th.DatasetSignature(), idx, mime)
	if r.Header.Get("If-None-Match") == etag {
		h.cacheHeaders(w, etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	frames := int(ci.Frames)
	if frames < 1 {
		frames = 1
	}

	g := gif.GIF{}
	quantizer := quantize.MedianCutQuantizer{AddTransparent: true}
	for fr := 0; fr < frames; fr++ {
		img, err := compositor.ComposeFrame(ci, atlas, fr)
		if err != nil {
			http.Error(w, "image could not be generated", http.StatusInternalServerError)
			glog.Errorf("composing item %d frame %d: %v", idx, fr, err)
			return
		}

		pal := quantizer.Quantize(make(color.Palette, 0, 256), img)
		paletted := image.NewPaletted(img.Bounds(), pal)
		draw.Draw(paletted, img.Bounds(), img, image.Point{}, draw.Src)

		g.Image = append(g.Image, paletted)
		g.Delay = append(g.Delay, 50)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}

	w.Header().Set("Content-Type", mime)
	h.cacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	gif.EncodeAll(w, &g)
}

func (h *Handler) sprHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}

	atlas := h.th.Atlas()
	if atlas == nil {
		http.Error(w, "no sprite archive loaded", http.StatusServiceUnavailable)
		return
	}

	img, err := atlas.Image(uint32(idx))
	if err != nil {
		http.Error(w, "failed to decode spr", http.StatusInternalServerError)
		glog.Errorf("decoding sprite %d: %v", idx, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}

func (h *Handler) cacheHeaders(w http.ResponseWriter, etag string) {
	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	if h.sprPath != "" {
		if s, err := os.Stat(h.sprPath); err == nil {
			w.Header().Set("Last-Modified", s.ModTime().Format(http.TimeFormat))
		}
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.listHandler)
	r.HandleFunc("/spr/{idx:[0-9]+}", h.sprHandler)
	r.HandleFunc("/item/{idx:[0-9]+}", h.itemHandler)
	r.HandleFunc("/item/{idx:[0-9]+}.gif", h.itemGIFHandler)
	r.HandleFunc("/item/c{idx:[0-9]+}", h.citemHandler)
}
