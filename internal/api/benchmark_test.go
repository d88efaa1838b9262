package api

import (
	"net/http"
	"testing"
)

func BenchmarkListCourses(b *testing.B) {
	env := newTestEnv(b)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if status, _ := env.do(b, http.MethodGet, "/courses?search=design", "", nil); status != http.StatusOK {
			b.Fatalf("unexpected status %d", status)
		}
	}
}

func BenchmarkGetProfileParallel(b *testing.B) {
	env := newTestEnv(b)
	token := env.login(b, "johndoe")
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if status, _ := env.do(b, http.MethodGet, "/users/profile", token, nil); status != http.StatusOK {
				b.Errorf("unexpected status %d", status)
				return
			}
		}
	})
}
