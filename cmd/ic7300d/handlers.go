package main

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/manager"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/memory"
)

// channelView is the API rendering of a channel, with enum fields as their
// display names.
type channelView struct {
	Slot          int     `json:"slot"`
	Name          string  `json:"name"`
	RxFrequency   uint64  `json:"rx_frequency"`
	RxDisplay     string  `json:"rx_display"`
	TxFrequency   uint64  `json:"tx_frequency"`
	Mode          string  `json:"mode"`
	Filter        string  `json:"filter"`
	Duplex        string  `json:"duplex"`
	ToneMode      string  `json:"tone_mode"`
	ToneFrequency float64 `json:"tone_frequency"`
	DTCSCode      int     `json:"dtcs_code"`
	TuningStep    int     `json:"tuning_step"`
	Band          string  `json:"band,omitempty"`
	Group         string  `json:"group,omitempty"`
	Empty         bool    `json:"empty"`
}

func viewOf(ch memory.Channel) channelView {
	if ch.Empty {
		return channelView{Slot: ch.Slot, Empty: true}
	}
	return channelView{
		Slot:          ch.Slot,
		Name:          ch.Name,
		RxFrequency:   ch.RxFrequency,
		RxDisplay:     memory.FormatFrequency(ch.RxFrequency),
		TxFrequency:   ch.TxFrequency,
		Mode:          ch.Mode.String(),
		Filter:        ch.Filter.String(),
		Duplex:        ch.Duplex.String(),
		ToneMode:      ch.ToneMode.String(),
		ToneFrequency: ch.ToneFrequency,
		DTCSCode:      ch.DTCSCode,
		TuningStep:    ch.TuningStep,
		Band:          memory.BandFor(ch.RxFrequency),
		Group:         ch.Group,
	}
}

// slotParam parses and range-checks the :slot path parameter.
func slotParam(c *gin.Context) (int, bool) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slot < 0 || slot > memory.MaxSlot {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "slot must be a number between 0 and 99",
		})
		return 0, false
	}
	return slot, true
}

// fail maps manager errors to HTTP status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var allocErr *memory.AllocationError
	switch {
	case errors.Is(err, manager.ErrBusy):
		status = http.StatusConflict
	case errors.As(err, &allocErr):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// handleGetStatus returns daemon status
func (d *Daemon) handleGetStatus(c *gin.Context) {
	summary := d.manager.Summary()
	c.JSON(http.StatusOK, gin.H{
		"status":        "running",
		"version":       Version,
		"device":        d.config.Radio.Device,
		"baud_rate":     d.config.Radio.BaudRate,
		"civ_address":   d.config.Radio.CIVAddress,
		"used_channels": summary.UsedChannels,
		"free_channels": summary.FreeChannels,
	})
}

// handleGetSummary returns channel usage by band and mode
func (d *Daemon) handleGetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, d.manager.Summary())
}

// handleGetChannels lists channels; ?all=true includes empty slots
func (d *Daemon) handleGetChannels(c *gin.Context) {
	var channels []memory.Channel
	if c.Query("all") == "true" {
		channels = d.manager.Store().Channels()
	} else {
		channels = d.manager.Store().NonEmpty()
	}

	views := make([]channelView, len(channels))
	for i, ch := range channels {
		views[i] = viewOf(ch)
	}
	c.JSON(http.StatusOK, gin.H{
		"channels": views,
		"count":    len(views),
	})
}

// handleGetChannel returns one slot
func (d *Daemon) handleGetChannel(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	ch, _ := d.manager.Store().Channel(slot)
	c.JSON(http.StatusOK, viewOf(ch))
}

// handleSetChannel edits one slot in the local model
func (d *Daemon) handleSetChannel(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}

	var req struct {
		Name          string  `json:"name"`
		RxFrequency   uint64  `json:"rx_frequency" binding:"required"`
		TxFrequency   uint64  `json:"tx_frequency"`
		Mode          string  `json:"mode" binding:"required"`
		Filter        string  `json:"filter"`
		Duplex        string  `json:"duplex"`
		ToneMode      string  `json:"tone_mode"`
		ToneFrequency float64 `json:"tone_frequency"`
		DTCSCode      int     `json:"dtcs_code"`
		TuningStep    int     `json:"tuning_step"`
		Group         string  `json:"group"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := memory.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := memory.ParseFilter(req.Filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := memory.DefaultChannel(slot)
	ch.Name = req.Name
	ch.RxFrequency = req.RxFrequency
	ch.TxFrequency = req.TxFrequency
	if ch.TxFrequency == 0 {
		ch.TxFrequency = ch.RxFrequency
	}
	ch.Mode = mode
	ch.Filter = filter
	if req.Duplex == "SPLIT" {
		ch.Duplex = memory.DuplexSplit
	}
	switch req.ToneMode {
	case "TONE":
		ch.ToneMode = memory.ToneEnc
	case "TSQL":
		ch.ToneMode = memory.ToneTSQL
	case "DTCS":
		ch.ToneMode = memory.ToneDTCS
	}
	if req.ToneFrequency > 0 {
		ch.ToneFrequency = req.ToneFrequency
	}
	if req.DTCSCode > 0 {
		ch.DTCSCode = req.DTCSCode
	}
	if req.TuningStep > 0 {
		ch.TuningStep = req.TuningStep
	}
	ch.Group = req.Group

	if err := d.manager.SetChannel(ch); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(ch))
}

// handleClearChannel clears one slot in the local model
func (d *Daemon) handleClearChannel(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	if err := d.manager.ClearLocalChannel(slot); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "slot": slot})
}

// handleGetGroups lists group declarations
func (d *Daemon) handleGetGroups(c *gin.Context) {
	groups := d.manager.Store().Groups()
	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}

type groupRequest struct {
	ID       string `json:"id" binding:"required"`
	BaseSlot int    `json:"base_slot"`
}

// handleAddGroup declares a new group
func (d *Daemon) handleAddGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := d.manager.AddGroup(req.ID, req.BaseSlot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "created", "id": req.ID})
}

// handleUpdateGroup moves a group's base slot
func (d *Daemon) handleUpdateGroup(c *gin.Context) {
	var req struct {
		BaseSlot int `json:"base_slot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	if err := d.manager.UpdateGroup(id, req.BaseSlot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "id": id})
}

// handleDeleteGroup removes a group declaration
func (d *Daemon) handleDeleteGroup(c *gin.Context) {
	id := c.Param("id")
	if err := d.manager.DeleteGroup(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// handleGetPlan previews the slot layout a bulk upload would use
func (d *Daemon) handleGetPlan(c *gin.Context) {
	plan, err := d.manager.Plan()
	if err != nil {
		fail(c, err)
		return
	}

	assignments := make(map[string]channelView, len(plan.Assignments))
	for _, slot := range plan.Slots() {
		ch := plan.Assignments[slot]
		ch.Slot = slot
		assignments[strconv.Itoa(slot)] = viewOf(ch)
	}
	c.JSON(http.StatusOK, gin.H{
		"ranges":      plan.Ranges,
		"assignments": assignments,
	})
}

// handleUploadChannel writes one channel to the radio
func (d *Daemon) handleUploadChannel(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	result, err := d.manager.UploadChannel(slot)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slot":        slot,
		"basic":       result.Basic,
		"extended":    result.Extended,
		"failed_step": result.FailedStep,
	})
}

// handleUploadAll runs the allocator and writes every channel to the radio.
// Progress streams over the websocket while the request runs.
func (d *Daemon) handleUploadAll(c *gin.Context) {
	report, err := d.manager.UploadAll(d.hub.Progress("upload"))
	d.hub.Finish("upload", err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleDownloadChannel reads one slot from the radio
func (d *Daemon) handleDownloadChannel(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	ch, found, err := d.manager.DownloadChannel(slot)
	if err != nil {
		fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"slot": slot, "empty": true})
		return
	}
	c.JSON(http.StatusOK, viewOf(ch))
}

// handleDownloadAll reads a slot range from the radio into the local model
func (d *Daemon) handleDownloadAll(c *gin.Context) {
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start slot"})
		return
	}
	end, err := strconv.Atoi(c.DefaultQuery("end", "99"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end slot"})
		return
	}

	count, err := d.manager.DownloadAll(start, end, d.hub.Progress("download"))
	d.hub.Finish("download", err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "downloaded",
		"count":  count,
		"start":  start,
		"end":    end,
	})
}

// handleClearDeviceChannel erases one slot on the radio
func (d *Daemon) handleClearDeviceChannel(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	if err := d.manager.ClearDeviceChannel(slot); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "slot": slot})
}

// handleExportCSV streams the channel list as CSV
func (d *Daemon) handleExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := d.manager.ExportCSV(&buf); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="channels.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// handleExportJSON streams the channel list and groups as JSON
func (d *Daemon) handleExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := d.manager.ExportJSON(&buf); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="channels.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// handleImportCSV replaces the local channels from an uploaded CSV body
func (d *Daemon) handleImportCSV(c *gin.Context) {
	count, err := d.manager.ImportCSV(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported", "count": count})
}

// handleImportJSON replaces the local channels and groups from a JSON body
func (d *Daemon) handleImportJSON(c *gin.Context) {
	count, err := d.manager.ImportJSON(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported", "count": count})
}
