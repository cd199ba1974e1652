package app

import "testing"

func TestAlertRelay(t *testing.T) {
	var got []string
	r := &alertRelay{sink: func(title, msg string) { got = append(got, "a:"+title) }}

	r.Alert("Connection Failed", "boom")
	r.set(func(title, msg string) { got = append(got, "b:"+title+":"+msg) })
	r.Alert("Disconnection Failed", "still up")

	want := []string{"a:Connection Failed", "b:Disconnection Failed:still up"}
	if len(got) != len(want) {
		t.Fatalf("alerts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("alert[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
