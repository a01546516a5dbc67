package model

// Suggestion is a canned task idea for one of the seed categories.
type Suggestion struct {
	Title       string
	Description string
	Priority    Priority
	Timeline    string
}

var suggestions = map[string][]Suggestion{
	"Venue & Catering": {
		{"Survey venue pernikahan", "Kunjungi 3-5 venue pilihan", PriorityUrgent, "12 bulan"},
		{"Booking venue utama", "Konfirmasi dan bayar DP venue", PriorityUrgent, "12 bulan"},
		{"Pilih menu catering", "Food tasting dan finalisasi menu", PriorityHigh, "6 bulan"},
		{"Konfirmasi jumlah tamu", "Hitung kapasitas venue vs daftar tamu", PriorityHigh, "3 bulan"},
		{"Final meeting venue", "Koordinasi teknis H-1", PriorityMedium, "1 minggu"},
	},
	"Dokumentasi": {
		{"Cari fotografer wedding", "Research dan compare portfolio", PriorityUrgent, "12 bulan"},
		{"Booking photographer", "Kontrak dan bayar DP fotografer", PriorityUrgent, "10 bulan"},
		{"Prewedding photoshoot", "Sesi foto prewedding", PriorityHigh, "3 bulan"},
		{"Briefing photographer", "Diskusi rundown dan shot list", PriorityMedium, "1 bulan"},
		{"Koordinasi videographer", "Sync dengan tim dokumentasi", PriorityMedium, "1 minggu"},
	},
	"Fashion & Beauty": {
		{"Fitting gaun pengantin", "Pilih dan fitting dress utama", PriorityHigh, "6 bulan"},
		{"Cari MUA (Make Up Artist)", "Trial makeup dan booking MUA", PriorityHigh, "6 bulan"},
		{"Fitting jas pengantin pria", "Sewa atau beli jas pengantin", PriorityHigh, "4 bulan"},
		{"Final fitting pakaian", "Pastikan semua pakaian pas", PriorityMedium, "1 bulan"},
		{"Siapkan aksesoris", "Sepatu, perhiasan, dan aksesoris lainnya", PriorityMedium, "1 bulan"},
	},
	"Undangan": {
		{"Design undangan", "Buat konsep dan desain undangan", PriorityHigh, "3 bulan"},
		{"Cetak undangan", "Produksi undangan sesuai jumlah tamu", PriorityHigh, "2 bulan"},
		{"Distribusi undangan", "Bagikan undangan ke semua tamu", PriorityMedium, "1 bulan"},
		{"Follow up RSVP", "Konfirmasi kehadiran tamu", PriorityMedium, "2 minggu"},
		{"Update daftar tamu", "Finalisasi jumlah tamu yang hadir", PriorityMedium, "1 minggu"},
	},
	"Administrasi": {
		{"Urus surat nikah", "Siapkan dokumen untuk catatan sipil", PriorityUrgent, "6 bulan"},
		{"Daftar ke KUA/Gereja", "Booking jadwal akad nikah", PriorityUrgent, "6 bulan"},
		{"Bimbingan pra nikah", "Ikuti sesi konseling pra nikah", PriorityHigh, "3 bulan"},
		{"Siapkan berkas lengkap", "Kumpulkan semua dokumen yang diperlukan", PriorityHigh, "2 bulan"},
		{"Konfirmasi jadwal akad", "Recheck jadwal dan persyaratan", PriorityMedium, "1 minggu"},
	},
	"Dekorasi & Bunga": {
		{"Konsep dekorasi venue", "Tentukan tema dan konsep dekor", PriorityHigh, "3 bulan"},
		{"Booking dekorator", "Pilih dan kontrak jasa dekorasi", PriorityHigh, "3 bulan"},
		{"Pilih bunga pengantin", "Hand bouquet dan corsage", PriorityMedium, "1 bulan"},
		{"Dekorasi meja tamu", "Centerpiece dan setting meja", PriorityMedium, "2 minggu"},
		{"Final check dekorasi", "Pastikan semua sesuai konsep", PriorityMedium, "1 hari"},
	},
	"Musik & Hiburan": {
		{"Cari band/DJ wedding", "Survey dan audisi entertainment", PriorityHigh, "6 bulan"},
		{"Booking entertainment", "Kontrak dan bayar DP hiburan", PriorityHigh, "4 bulan"},
		{"Playlist lagu favorit", "Siapkan daftar lagu yang diinginkan", PriorityMedium, "2 bulan"},
		{"Sound system check", "Test audio dan microphone", PriorityMedium, "1 minggu"},
		{"Rehearsal entertainment", "Gladi bersih dengan entertainer", PriorityMedium, "1 hari"},
	},
	"Transportasi": {
		{"Sewa mobil pengantin", "Booking kendaraan untuk pengantin", PriorityMedium, "1 bulan"},
		{"Transportasi keluarga", "Atur kendaraan untuk keluarga besar", PriorityMedium, "1 bulan"},
		{"Koordinasi sopir", "Briefing rute dan jadwal", PriorityLow, "1 minggu"},
		{"Backup transportation", "Siapkan alternatif kendaraan", PriorityLow, "1 minggu"},
		{"Check kendaraan", "Pastikan kondisi mobil prima", PriorityMedium, "1 hari"},
	},
	"Honeymoon": {
		{"Tentukan destinasi", "Pilih lokasi bulan madu", PriorityMedium, "3 bulan"},
		{"Booking hotel/resort", "Reservasi akomodasi honeymoon", PriorityMedium, "2 bulan"},
		{"Urus visa/paspor", "Siapkan dokumen perjalanan", PriorityHigh, "2 bulan"},
		{"Booking tiket pesawat", "Beli tiket untuk honeymoon", PriorityMedium, "1 bulan"},
		{"Siapkan itinerary", "Rencana kegiatan selama honeymoon", PriorityLow, "2 minggu"},
	},
	"Hari H": {
		{"Final briefing vendor", "Meeting terakhir dengan semua vendor", PriorityUrgent, "1 hari"},
		{"Siapkan emergency kit", "Kit darurat untuk hari H", PriorityHigh, "1 hari"},
		{"Koordinasi wedding organizer", "Final check dengan WO", PriorityUrgent, "1 hari"},
		{"Preparation checklist", "Cek ulang semua persiapan", PriorityUrgent, "1 hari"},
		{"Relax dan istirahat", "Tidur cukup sebelum hari besar", PriorityHigh, "1 hari"},
	},
}

// SuggestionsFor returns the canned ideas for a category name, or nil.
func SuggestionsFor(categoryName string) []Suggestion {
	list := suggestions[categoryName]
	if list == nil {
		return nil
	}
	out := make([]Suggestion, len(list))
	copy(out, list)
	return out
}
