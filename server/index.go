package server

import (
	"github.com/gin-gonic/gin"
)

// handleIndex serves the single-page chat front end
func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(200, indexPageTemplate)
}

// indexPageTemplate is the HTML for the chat front end. It talks to the API
// with a bearer token kept in localStorage; the server itself stays stateless.
const indexPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Sales Assistant</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh; display: flex; justify-content: center; align-items: center;
            padding: 2rem;
        }
        .panel {
            background: white; border-radius: 16px; padding: 2rem;
            box-shadow: 0 20px 60px rgba(0, 0, 0, 0.3);
            width: 100%; max-width: 720px;
        }
        h1 { color: #2d3748; margin-bottom: 1rem; font-size: 1.5rem; }
        input, button, textarea {
            font: inherit; padding: 0.6rem 0.8rem; border-radius: 8px;
            border: 1px solid #cbd5e0; margin-bottom: 0.5rem;
        }
        button {
            background: #667eea; color: white; border: none; cursor: pointer;
        }
        button:hover { background: #5a67d8; }
        #login-form input { width: 100%; }
        #chat { display: none; }
        #messages {
            height: 360px; overflow-y: auto; border: 1px solid #e2e8f0;
            border-radius: 8px; padding: 1rem; margin-bottom: 0.5rem;
        }
        .msg { margin-bottom: 0.75rem; line-height: 1.4; }
        .msg.user { color: #2b6cb0; }
        .msg.assistant { color: #2d3748; }
        #prompt { width: 100%; resize: vertical; }
        .error { color: #c53030; margin-bottom: 0.5rem; }
    </style>
</head>
<body>
    <div class="panel">
        <h1>Sales Assistant</h1>
        <div id="login-form">
            <div id="login-error" class="error"></div>
            <input id="username" placeholder="Username" autocomplete="username">
            <input id="password" type="password" placeholder="Password" autocomplete="current-password">
            <button onclick="login()">Log in</button>
        </div>
        <div id="chat">
            <div id="messages"></div>
            <textarea id="prompt" rows="2" placeholder="Ask about your customers..."></textarea>
            <button onclick="send()">Send</button>
        </div>
    </div>
    <script>
        let history = [];

        function token() { return localStorage.getItem('access_token'); }

        function show(id, visible) {
            document.getElementById(id).style.display = visible ? 'block' : 'none';
        }

        async function login() {
            const body = new URLSearchParams({
                username: document.getElementById('username').value,
                password: document.getElementById('password').value,
            });
            const res = await fetch('/api/login', { method: 'POST', body });
            const data = await res.json();
            if (!res.ok) {
                document.getElementById('login-error').textContent = data.error || 'Login failed';
                return;
            }
            localStorage.setItem('access_token', data.access_token);
            show('login-form', false);
            show('chat', true);
        }

        function append(role, content) {
            const div = document.createElement('div');
            div.className = 'msg ' + role;
            div.textContent = (role === 'user' ? 'You: ' : 'Assistant: ') + content;
            const box = document.getElementById('messages');
            box.appendChild(div);
            box.scrollTop = box.scrollHeight;
        }

        async function send() {
            const prompt = document.getElementById('prompt');
            const content = prompt.value.trim();
            if (!content) return;
            prompt.value = '';
            append('user', content);
            history.push({ role: 'user', content });
            const res = await fetch('/api/chat', {
                method: 'POST',
                headers: {
                    'Content-Type': 'application/json',
                    'Authorization': 'Bearer ' + token(),
                },
                body: JSON.stringify({ messages: history }),
            });
            const data = await res.json();
            append('assistant', data.message || data.error || 'Request failed');
            if (res.ok) history.push({ role: 'assistant', content: data.message });
        }

        if (token()) { show('login-form', false); show('chat', true); }
    </script>
</body>
</html>`
