// Hand-written in the shape mockgen would generate for channel.Capturer
// and channel.Renderer.

package driver

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockCapturer is a mock of the channel.Capturer interface.
type MockCapturer struct {
	ctrl     *gomock.Controller
	recorder *MockCapturerMockRecorder
}

// MockCapturerMockRecorder is the mock recorder for MockCapturer.
type MockCapturerMockRecorder struct {
	mock *MockCapturer
}

// NewMockCapturer creates a new mock instance.
func NewMockCapturer(ctrl *gomock.Controller) *MockCapturer {
	mock := &MockCapturer{ctrl: ctrl}
	mock.recorder = &MockCapturerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCapturer) EXPECT() *MockCapturerMockRecorder {
	return m.recorder
}

// Capture mocks base method.
func (m *MockCapturer) Capture() ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Capture")
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Capture indicates an expected call of Capture.
func (mr *MockCapturerMockRecorder) Capture() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Capture", reflect.TypeOf((*MockCapturer)(nil).Capture))
}

// IsCapturing mocks base method.
func (m *MockCapturer) IsCapturing() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsCapturing")
	ret0, _ := ret[0].(bool)
	return ret0
}

// IsCapturing indicates an expected call of IsCapturing.
func (mr *MockCapturerMockRecorder) IsCapturing() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsCapturing", reflect.TypeOf((*MockCapturer)(nil).IsCapturing))
}

// MockRenderer is a mock of the channel.Renderer interface.
type MockRenderer struct {
	ctrl     *gomock.Controller
	recorder *MockRendererMockRecorder
}

// MockRendererMockRecorder is the mock recorder for MockRenderer.
type MockRendererMockRecorder struct {
	mock *MockRenderer
}

// NewMockRenderer creates a new mock instance.
func NewMockRenderer(ctrl *gomock.Controller) *MockRenderer {
	mock := &MockRenderer{ctrl: ctrl}
	mock.recorder = &MockRendererMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRenderer) EXPECT() *MockRendererMockRecorder {
	return m.recorder
}

// Render mocks base method.
func (m *MockRenderer) Render(data []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Render", data)
	ret0, _ := ret[0].(error)
	return ret0
}

// Render indicates an expected call of Render.
func (mr *MockRendererMockRecorder) Render(data any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Render", reflect.TypeOf((*MockRenderer)(nil).Render), data)
}

// Clear mocks base method.
func (m *MockRenderer) Clear() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Clear")
}

// Clear indicates an expected call of Clear.
func (mr *MockRendererMockRecorder) Clear() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Clear", reflect.TypeOf((*MockRenderer)(nil).Clear))
}
