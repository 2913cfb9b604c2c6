package statsapi

// Dashboard mirrors GET /dashboard.
type Dashboard struct {
	Date         string          `json:"дата"`
	SelectedDate string          `json:"выбранная_дата,omitempty"`
	Weekday      string          `json:"день"`
	Time         string          `json:"время,omitempty"`
	Timezone     string          `json:"часовой_пояс,omitempty"`
	IsToday      bool            `json:"это_сегодня"`
	Sheet        string          `json:"лист"`
	Status       string          `json:"статус,omitempty"`
	Uptime       string          `json:"аптайм,omitempty"`
	Total        TotalStats      `json:"всего"`
	RU           StatsBlock      `json:"ру"`
	UZB          StatsBlock      `json:"узб"`
	Groups       []GroupData     `json:"группы"`
	TopUsers     []TopUser       `json:"топ_юзеры"`
	TopGroups    []GroupData     `json:"топ_группы"`
	Metrics      BotMetrics      `json:"метрики"`
	Purchases    *PurchasePeriod `json:"закупки_тг,omitempty"`
	FromCache    bool            `json:"из_кеша,omitempty"`
	Updating     bool            `json:"обновляется,omitempty"`
	BotOffline   bool            `json:"бот_недоступен,omitempty"`
}

// TotalStats aggregates every group for the day.
type TotalStats struct {
	Users   int     `json:"юзеров"`
	Took    int     `json:"взяли_тг"`
	Shadow  int     `json:"тень"`
	Frost   int     `json:"мороз"`
	Flight  int     `json:"вылет"`
	Lost    int     `json:"всего_слётов"`
	Percent float64 `json:"процент"`
	Left    int     `json:"осталось"`
}

// StatsBlock is a per-segment (RU/UZB) breakdown.
type StatsBlock struct {
	People  int     `json:"людей"`
	Took    int     `json:"взяли_тг"`
	Shadow  int     `json:"тень"`
	Frost   int     `json:"мороз"`
	Flight  int     `json:"вылет"`
	Total   int     `json:"всего"`
	Percent float64 `json:"процент"`
	Left    int     `json:"осталось,omitempty"`
}

// GroupData is one group's row on the dashboard.
type GroupData struct {
	Name          string        `json:"имя"`
	Users         int           `json:"юзеров"`
	Took          int           `json:"взяли_тг"`
	Shadow        int           `json:"тень"`
	Frost         int           `json:"мороз"`
	Flight        int           `json:"вылет"`
	Lost          int           `json:"всего_слётов"`
	Percent       float64       `json:"процент"`
	Status        string        `json:"статус"`
	Sheet         string        `json:"лист"`
	RU            StatsBlock    `json:"ру"`
	UZB           StatsBlock    `json:"узб"`
	Purchases     *PurchaseData `json:"закупки_тг,omitempty"`
	PurchasesWeek *PurchaseData `json:"закупки_тг_неделя,omitempty"`
}

// TopUser is an entry of the daily leaderboard.
type TopUser struct {
	Name   string `json:"имя"`
	Group  string `json:"группа"`
	Shadow int    `json:"тень"`
	Frost  int    `json:"мороз"`
	Flight int    `json:"вылет"`
	Total  int    `json:"всего"`
}

// BotMetrics reports the ingestion bot's counters.
type BotMetrics struct {
	Uptime    string `json:"аптайм"`
	Processed int    `json:"обработано"`
	Recorded  int    `json:"записано"`
	Errors    int    `json:"ошибок"`
	Queued    int    `json:"в_очереди"`
}

// PurchaseData counts purchases per segment.
type PurchaseData struct {
	RU    int `json:"ру"`
	UZB   int `json:"узб"`
	Total int `json:"всего,omitempty"`
}

// PurchasePeriod holds day and week purchase counts.
type PurchasePeriod struct {
	Day  PurchaseData `json:"день"`
	Week PurchaseData `json:"неделя"`
}

// WeeklyStats mirrors GET /weekly-stats. Rollups are computed by the server.
type WeeklyStats struct {
	Sheet      string        `json:"лист"`
	Period     string        `json:"период"`
	CurrentDay int           `json:"текущий_день"`
	Groups     []WeeklyGroup `json:"группы"`
	FromCache  bool          `json:"из_кеша,omitempty"`
}

// WeeklyGroup is one group's weekly ranking entry.
type WeeklyGroup struct {
	Name           string              `json:"имя"`
	Rank           int                 `json:"ранг"`
	AveragePercent float64             `json:"средний_процент"`
	DaysWithData   int                 `json:"дней_с_данными"`
	Days           map[string]DayStats `json:"данные_дней"`
	Purchases      *PurchaseData       `json:"закупки_тг,omitempty"`
}

// DayStats is one day inside a weekly ranking entry.
type DayStats struct {
	Took    int     `json:"взяли_тг"`
	Lost    int     `json:"слётов"`
	Percent float64 `json:"процент"`
}

// PersonalStats mirrors GET /personal-stats.
type PersonalStats struct {
	Group      string         `json:"group"`
	Sheet      string         `json:"sheet"`
	UsersCount int            `json:"users_count"`
	Users      []PersonalUser `json:"users"`
	FromCache  bool           `json:"из_кеша,omitempty"`
}

// PersonalUser is one user's per-day and weekly breakdown.
type PersonalUser struct {
	Name   string                     `json:"name"`
	Row    int                        `json:"row"`
	Type   string                     `json:"type"`
	Days   map[string]PersonalDayData `json:"days"`
	Weekly PersonalWeek               `json:"weekly"`
}

// PersonalDayData holds one day of personal counters.
type PersonalDayData struct {
	Took   int `json:"took"`
	Shadow int `json:"shadow"`
	Frost  int `json:"frost"`
	Flight int `json:"flight"`
	Lost   int `json:"lost"`
	Left   int `json:"left"`
}

// PersonalWeek is the server-computed weekly total for a user.
type PersonalWeek struct {
	PersonalDayData
	Percent float64 `json:"percent"`
}

// Recordings mirrors GET /recordings/team.
type Recordings struct {
	Users    []RecordingUser `json:"users"`
	Short    string          `json:"short"`
	RoomName string          `json:"room_name"`
	IsMock   bool            `json:"is_mock,omitempty"`
}

// RecordingUser is one user's availability for the week.
type RecordingUser struct {
	Name   string                  `json:"name"`
	ID     string                  `json:"id"`
	Row    int                     `json:"row"`
	Weekly RecordingWeek           `json:"weekly"`
	Days   map[string]DayRecording `json:"days"`
}

// RecordingWeek is the backend's own weekly summary. statdeck derives its
// numbers from the slots instead; this is kept for comparison.
type RecordingWeek struct {
	TotalHours     int     `json:"total_hours"`
	RecordedHours  int     `json:"recorded_hours"`
	AvailableHours *int    `json:"available_hours,omitempty"`
	SizeMB         float64 `json:"size_mb"`
	Percent        float64 `json:"percent"`
}

// DayRecording is one day of hourly slots keyed by hour name ("hour_08").
type DayRecording struct {
	Date        string              `json:"date"`
	Hours       map[string]HourData `json:"hours"`
	HoursCount  int                 `json:"hours_count"`
	TotalHours  int                 `json:"total_hours"`
	TotalSizeMB float64             `json:"total_size_mb"`
	IsFuture    bool                `json:"is_future"`
	IsToday     bool                `json:"is_today"`
}

// HourData is one availability slot.
type HourData struct {
	Available bool       `json:"available"`
	Exists    bool       `json:"exists,omitempty"`
	SizeMB    float64    `json:"size_mb"`
	Files     []HourFile `json:"files,omitempty"`
}

// Recorded reports whether the slot holds a recording. Older backends set
// exists instead of available.
func (h HourData) Recorded() bool {
	return h.Available || h.Exists
}

// HourFile is one uploaded file inside a slot.
type HourFile struct {
	Name       string  `json:"name"`
	SizeMB     float64 `json:"size_mb"`
	UploadedAt string  `json:"uploaded_at,omitempty"`
}

// BotStatus mirrors GET /status.
type BotStatus struct {
	Status         string      `json:"статус"`
	Uptime         string      `json:"аптайм"`
	Processed      int         `json:"сообщений_обработано"`
	Recorded       int         `json:"сообщений_записано"`
	ErrorsLastHour int         `json:"ошибок_за_час"`
	Buffer         *BufferInfo `json:"буфер,omitempty"`
}

// BufferInfo describes the bot's write buffer.
type BufferInfo struct {
	Size    int `json:"размер"`
	Pending int `json:"ожидает"`
}

// CacheStats mirrors GET /cache-stats.
type CacheStats struct {
	Dashboard  CacheCounter   `json:"дашборд"`
	Ranking    RankingCache   `json:"рейтинг"`
	Personal   CacheCounter   `json:"личная_стат"`
	Semaphore  SemaphoreState `json:"семафор"`
	Recordings RecordingCache `json:"записи"`
}

// CacheCounter reports entries and TTL of a server-side cache.
type CacheCounter struct {
	Entries    int `json:"записей"`
	TTLSeconds int `json:"ttl_сек"`
}

// RankingCache reports the weekly ranking cache.
type RankingCache struct {
	Present    bool `json:"есть"`
	Fresh      bool `json:"актуален"`
	TTLSeconds int  `json:"ttl_сек"`
}

// SemaphoreState reports the backend's fetch concurrency limiter.
type SemaphoreState struct {
	Available int `json:"доступно"`
	Max       int `json:"макс"`
}

// RecordingCache reports the server-side recordings cache.
type RecordingCache struct {
	Entries    int `json:"кеш_записей"`
	TTLSeconds int `json:"ttl_сек"`
}

// Settings mirrors GET /settings.
type Settings struct {
	BotName  string `json:"имя_бота"`
	Timezone int    `json:"часовой_пояс"`
	RUStart  int    `json:"начало_ру"`
	RUEnd    int    `json:"конец_ру"`
	UZBStart int    `json:"начало_узб"`
	UZBEnd   int    `json:"конец_узб"`
	Groups   int    `json:"групп"`
}

// Room is a recording room known to the backend.
type Room struct {
	Name  string
	Short string
}

// Rooms lists the recording rooms in display order.
var Rooms = []Room{
	{Name: "ВИНН 1", Short: "vinn1"},
	{Name: "ВИНН 2", Short: "vinn2"},
	{Name: "ТОКИО", Short: "tokio"},
	{Name: "БОРЦЫ", Short: "borcy"},
	{Name: "КИЕВ РЕКТОРАТ", Short: "kiev"},
	{Name: "ЗП 1", Short: "zp1"},
	{Name: "ЗП 2", Short: "zp2"},
	{Name: "АЗОВ 1", Short: "azov1"},
	{Name: "АЗОВ 2", Short: "azov2"},
	{Name: "БЕРДЯНСК 1", Short: "berd1"},
	{Name: "БЕРДЯНСК 2", Short: "berd2"},
	{Name: "ЯРЫЙ", Short: "yaryj"},
	{Name: "ТК РЕКТОРАТ", Short: "tk_rekt"},
	{Name: "ГАЗОН", Short: "gazon"},
}

// RoomName returns the display name of a room, or short itself when unknown.
func RoomName(short string) string {
	for _, r := range Rooms {
		if r.Short == short {
			return r.Name
		}
	}
	return short
}
