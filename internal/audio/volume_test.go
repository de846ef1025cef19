// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestVolumeSet(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"unity", 1, 1},
		{"half", 0.5, 0.5},
		{"negative", -0.3, 0},
		{"above one", 4, 1},
		{"NaN", math.NaN(), 0},
		{"+Inf", math.Inf(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVolume(0.7)
			if got := v.Set(tt.in); got != tt.want {
				t.Errorf("Set(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got := v.Get(); got != tt.want {
				t.Errorf("Get() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeConcurrent(t *testing.T) {
	v := NewVolume(0)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 1000 {
				v.Set(float64((i+j)%10) / 10)
				if g := v.Get(); g < 0 || g > 1 {
					t.Errorf("Get() = %v out of range", g)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNullHostStream(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fill := func(out []float32) {
		mu.Lock()
		defer mu.Unlock()
		if len(out) != 32*2 {
			t.Errorf("buffer len = %d, want 64", len(out))
		}
		calls++
	}

	host := NullHost{}
	if err := host.Init(); err != nil {
		t.Fatal(err)
	}
	stream, err := host.OpenStream(StreamConfig{SampleRate: 8000, Channels: 2, FramesPerBuffer: 32}, fill)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatal(err)
	}
	stream.Start()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("fill called %d times in 2s", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
	stream.Close()

	mu.Lock()
	after := calls
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != after {
		t.Error("fill called after Close")
	}
}
